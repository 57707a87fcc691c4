package cli

import (
	"fmt"

	"github.com/fatih/color"
)

// printHeader renders the logo banner followed by an optional section title.
func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println("─────────────────────")
	}
}
