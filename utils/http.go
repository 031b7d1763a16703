// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the Telegram API binding. The timeout must sit
// above the long-poll window (60s) or every empty poll looks like an
// error.
var HTTPClient = &http.Client{
	Timeout: 90 * time.Second,
}
