package conversation

import (
	"errors"
	"fmt"
)

// Display renders err as the text shown to the user in place of a reply
func Display(err error) string {
	if err == nil {
		return ""
	}

	var convErr *Error
	if !errors.As(err, &convErr) {
		return fmt.Sprintf("An error occurred: %v", err)
	}

	switch convErr.Kind {
	case KindConfiguration:
		return "The OpenAI API key is not set. Check your .env file."
	case KindClientInit:
		return fmt.Sprintf("OpenAI client initialization error: %v", convErr.Err)
	case KindBootstrap:
		return fmt.Sprintf("Assistant creation error: %v", convErr.Err)
	case KindRunFailed:
		return fmt.Sprintf("Run error: %s", convErr.Status)
	case KindTimeout:
		if convErr.Status != "" {
			return fmt.Sprintf("Run error: no answer in time (last status %s)", convErr.Status)
		}
		return "Run error: no answer in time"
	case KindInvalidInput:
		return "Please enter a question."
	case KindBusy:
		return "Still answering your previous question. Please wait."
	default:
		return fmt.Sprintf("An error occurred: %v", convErr.Err)
	}
}
