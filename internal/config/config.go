// Package config defines the runtime configuration and its loader.
package config

// Config is the full runtime configuration. Values flow defaults < JSON
// file < environment; constructors receive the loaded value explicitly.
type Config struct {
	Agent        AgentConfig        `json:"agent"`
	API          APIConfig          `json:"api"`
	Kafka        KafkaConfig        `json:"kafka"`
	Tools        ToolsConfig        `json:"tools"`
	Conversation ConversationConfig `json:"conversation"`
	GitHub       GitHubConfig       `json:"github"`
	Providers    ProvidersConfig    `json:"providers"`
	Ledger       LedgerConfig       `json:"ledger"`
}

// AgentConfig identifies the agent and its model defaults.
type AgentConfig struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	MaxTokens int    `json:"maxTokens" envconfig:"MAX_TOKENS"`
}

// APIConfig configures the HTTP chat gateway.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// KafkaConfig configures the bus connection. Empty Brokers disables the
// bus source and the claim broadcast.
type KafkaConfig struct {
	Brokers       []string `json:"brokers"`
	TopicPrefix   string   `json:"topicPrefix" envconfig:"TOPIC_PREFIX"`
	ConsumerGroup string   `json:"consumerGroup" envconfig:"CONSUMER_GROUP"`
}

// ToolsConfig configures the tool sandbox.
type ToolsConfig struct {
	Enabled             []string `json:"enabled"`
	ShellTimeoutSeconds int      `json:"shellTimeoutSeconds" envconfig:"SHELL_TIMEOUT_SECONDS"`
	AllowedPaths        []string `json:"allowedPaths" envconfig:"ALLOWED_PATHS"`
	GitRepos            []string `json:"gitRepos" envconfig:"GIT_REPOS"`
}

// ConversationConfig bounds the chat history buffer.
type ConversationConfig struct {
	MaxHistory int `json:"maxHistory" envconfig:"MAX_HISTORY"`
}

// GitHubConfig configures the issue workflows. Empty Repo disables them.
type GitHubConfig struct {
	Repo                string       `json:"repo"`
	Token               string       `json:"token"`
	PollIntervalSeconds int          `json:"pollIntervalSeconds" envconfig:"POLL_INTERVAL_SECONDS"`
	BaseBranch          string       `json:"baseBranch" envconfig:"BASE_BRANCH"`
	Labels              LabelsConfig `json:"labels"`
}

// LabelsConfig maps workflow stages to issue labels.
type LabelsConfig struct {
	Plan         string `json:"plan"`
	Planned      string `json:"planned"`
	Implement    string `json:"implement"`
	Implementing string `json:"implementing"`
	Done         string `json:"done"`
}

// ProvidersConfig holds model backend credentials.
type ProvidersConfig struct {
	Anthropic AnthropicConfig `json:"anthropic"`
}

// AnthropicConfig configures the Anthropic client.
type AnthropicConfig struct {
	APIKey  string `json:"apiKey" envconfig:"API_KEY"`
	APIBase string `json:"apiBase" envconfig:"API_BASE"`
}

// LedgerConfig locates the task database.
type LedgerConfig struct {
	Path string `json:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Name:      "venus",
			Model:     "claude-sonnet-4-5-20250929",
			MaxTokens: 4096,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Kafka: KafkaConfig{
			TopicPrefix:   "minion",
			ConsumerGroup: "minion",
		},
		Tools: ToolsConfig{
			Enabled:             []string{"shell", "file_read", "file_write", "git"},
			ShellTimeoutSeconds: 30,
			AllowedPaths:        []string{"/opt/smartworkx", "/tmp"},
			GitRepos:            []string{"/opt/smartworkx"},
		},
		Conversation: ConversationConfig{
			MaxHistory: 50,
		},
		GitHub: GitHubConfig{
			PollIntervalSeconds: 60,
			BaseBranch:          "master",
			Labels: LabelsConfig{
				Plan:         "minion:plan",
				Planned:      "minion:planned",
				Implement:    "minion:implement",
				Implementing: "minion:implementing",
				Done:         "minion:done",
			},
		},
		Ledger: LedgerConfig{
			Path: "~/.minion/tasks.db",
		},
	}
}
