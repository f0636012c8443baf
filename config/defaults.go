package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/assistui",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		OpenAI: OpenAIConfig{
			BaseURL:      "https://api.openai.com/v1",
			DefaultModel: "gpt-4o-mini",
			ListOrder:    "desc",
			ListLimit:    20,
		},
		Security: SecurityConfig{
			CredentialStorage: SecurityPlainText,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# assistui System Configuration
# Location: ~/.config/assistui/settings.toml
# This file uses TOML format: https://toml.io

# Directory where the conversation database, credentials and user config are stored
data_directory = "~/.local/share/assistui"
`
}

func GenerateUserConfigTemplate() string {
	return `# assistui User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[openai]
# API base URL (change for proxies or compatible gateways)
base_url = "https://api.openai.com/v1"

# Model used when creating a new assistant
default_model = "gpt-4o-mini"

# Assistant listing order by creation time: "asc" or "desc"
list_order = "desc"

# Maximum assistants fetched per listing (0 = API default)
list_limit = 20

# Per-request timeout in seconds (0 = transport default)
request_timeout = 0

[session]
# Extra run instructions sent with every message (optional)
default_instructions = ""

# Save an API key even when the availability check rejects it
persist_invalid_key = false

[security]
# Where the API key is kept: "plaintext" (credentials.toml, 0600)
# or "ssh_key" (credentials.enc, encrypted with a key derived from your SSH key)
credential_storage = "plaintext"
ssh_key_path = ""

[telemetry]
# Write OpenTelemetry traces and metrics to rotating files in the data directory
enabled = false
`
}
