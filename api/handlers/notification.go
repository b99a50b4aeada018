package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/models"
	"github.com/virtudoc/virtudoc-engine/store"
)

// Notification exported for testing purposes
type Notification struct {
	Store *store.Store
}

// NotificationsHandler returns notifications in push order. With ?userId and
// ?role it filters to one user's view, including their role queue.
func (n Notification) NotificationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	role := models.Role(r.URL.Query().Get("role"))

	var notifications []models.Notification
	if userID != "" || role != "" {
		notifications = n.Store.NotificationsForUser(userID, role)
	} else {
		notifications = n.Store.Notifications()
	}

	response := map[string]interface{}{
		"notifications": notifications,
		"unreadCount":   n.Store.UnreadCount(),
	}
	b, err := json.Marshal(response)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MarkReadHandler flips the read flag on one notification. Unknown ids are
// accepted and leave the store untouched.
func (n Notification) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["notification_id"]

	n.Store.MarkRead(notificationID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":     "Notification marked as read",
		"unreadCount": n.Store.UnreadCount(),
	})
}

// ClearNotificationsHandler drops every notification
func (n Notification) ClearNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	n.Store.ClearNotifications()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Notifications cleared",
	})
}
