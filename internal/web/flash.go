package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "flash"

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Type    string `json:"type"` // "success", "info", "warning", "danger"
	Message string `json:"message"`
}

// setFlash stores a flash message in a cookie for the next request.
func setFlash(w http.ResponseWriter, flashType, message string) {
	payload, err := json.Marshal(FlashMessage{Type: flashType, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// popFlash reads and clears the flash cookie. Returns nil when there is none.
func popFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	payload, err := base64.URLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	var flash FlashMessage
	if err := json.Unmarshal(payload, &flash); err != nil {
		return nil
	}
	return &flash
}
