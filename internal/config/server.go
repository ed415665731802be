package config

func GetPort() string {
	return GetEnvOrDefault("PORT", "8080")
}

// GetPageTitle returns the heading shown on the chat page
func GetPageTitle() string {
	return GetEnvOrDefault("PAGE_TITLE", "QA Chatbot")
}
