package domain

import (
	"strings"
	"time"
)

type SessionID string
type UserID string
type MessageID string
type OrderID string

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ServiceType is how the user wants to get the meal.
type ServiceType string

const (
	ServiceDelivery ServiceType = "delivery"
	ServicePickup   ServiceType = "pickup"
	ServiceDineIn   ServiceType = "dine-in"
)

// ParseServiceType maps free-form input onto a known service type.
// Returns "" when the input does not name one.
func ParseServiceType(s string) ServiceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "delivery":
		return ServiceDelivery
	case "pickup", "pick-up", "takeout", "take-out":
		return ServicePickup
	case "dine-in", "dinein", "dine in":
		return ServiceDineIn
	default:
		return ""
	}
}

type Timestamp = time.Time
