package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/davronbekov/taxipark-backend/internal/notifications"
	"github.com/davronbekov/taxipark-backend/pkg/db/models"
)

// listEnvelope is the shared paginated response shape.
type listEnvelope[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type driverView struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	LicensePlate  string          `json:"licensePlate"`
	CarModel      string          `json:"carModel"`
	Status        string          `json:"status"`
	MonthlySalary decimal.Decimal `json:"monthlySalary"`
	DailyPlan     decimal.Decimal `json:"dailyPlan"`
	Rating        float64         `json:"rating"`
	LastLat       *float64        `json:"lastLat,omitempty"`
	LastLng       *float64        `json:"lastLng,omitempty"`
	LocatedAt     *time.Time      `json:"locatedAt,omitempty"`
	IsDeleted     bool            `json:"isDeleted"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toDriverView(d models.Driver, balance *decimal.Decimal) driverView {
	return driverView{
		ID:            d.ID.String(),
		Name:          d.Name,
		LicensePlate:  d.LicensePlate,
		CarModel:      d.CarModel,
		Status:        d.Status.String(),
		MonthlySalary: d.MonthlySalary,
		DailyPlan:     d.DailyPlan,
		Rating:        d.Rating,
		LastLat:       d.LastLat,
		LastLng:       d.LastLng,
		LocatedAt:     d.LocatedAt,
		IsDeleted:     d.IsDeleted,
		Balance:       balance,
		CreatedAt:     d.CreatedAt,
	}
}

type transactionView struct {
	ID             string          `json:"id"`
	DriverID       string          `json:"driverId"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	OccurredAt     time.Time       `json:"occurredAt"`
	Status         string          `json:"status"`
	ReversedAt     *time.Time      `json:"reversedAt,omitempty"`
	ReversalReason *string         `json:"reversalReason,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toTransactionView(t models.Transaction) transactionView {
	return transactionView{
		ID:             t.ID.String(),
		DriverID:       t.DriverID.String(),
		Amount:         t.Amount,
		Type:           t.Type.String(),
		Description:    t.Description,
		OccurredAt:     t.OccurredAt,
		Status:         t.Status.String(),
		ReversedAt:     t.ReversedAt,
		ReversalReason: t.ReversalReason,
		CreatedAt:      t.CreatedAt,
	}
}

type salaryView struct {
	ID              string          `json:"id"`
	DriverID        string          `json:"driverId"`
	Amount          decimal.Decimal `json:"amount"`
	EffectiveDate   time.Time       `json:"effectiveDate"`
	Status          string          `json:"status"`
	TransactionID   *string         `json:"transactionId,omitempty"`
	ReversedAt      *time.Time      `json:"reversedAt,omitempty"`
	ReversalReason  *string         `json:"reversalReason,omitempty"`
	WindowRemaining string          `json:"windowRemaining,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toSalaryView(s models.DriverSalary, windowRemaining string) salaryView {
	view := salaryView{
		ID:              s.ID.String(),
		DriverID:        s.DriverID.String(),
		Amount:          s.Amount,
		EffectiveDate:   s.EffectiveDate,
		Status:          s.Status.String(),
		ReversedAt:      s.ReversedAt,
		ReversalReason:  s.ReversalReason,
		WindowRemaining: windowRemaining,
		CreatedAt:       s.CreatedAt,
	}
	if s.TransactionID != nil {
		id := s.TransactionID.String()
		view.TransactionID = &id
	}
	return view
}

type reversalView struct {
	ID             string          `json:"id"`
	SalaryID       string          `json:"salaryId"`
	DriverID       string          `json:"driverId"`
	OriginalAmount decimal.Decimal `json:"originalAmount"`
	Reason         string          `json:"reason"`
	ApprovalStatus string          `json:"approvalStatus"`
	ReversedBy     string          `json:"reversedBy"`
	ReversedAt     time.Time       `json:"reversedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toReversalView(r models.PaymentReversal) reversalView {
	return reversalView{
		ID:             r.ID.String(),
		SalaryID:       r.SalaryID.String(),
		DriverID:       r.DriverID.String(),
		OriginalAmount: r.OriginalAmount,
		Reason:         r.Reason,
		ApprovalStatus: r.ApprovalStatus.String(),
		ReversedBy:     r.ReversedBy.String(),
		ReversedAt:     r.ReversedAt,
		CreatedAt:      r.CreatedAt,
	}
}

type auditView struct {
	ID            string    `json:"id"`
	Action        string    `json:"action"`
	TargetID      string    `json:"targetId"`
	TargetName    string    `json:"targetName"`
	PerformedBy   string    `json:"performedBy"`
	PerformerName string    `json:"performerName"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toAuditView(a models.AuditLog) auditView {
	return auditView{
		ID:            a.ID.String(),
		Action:        a.Action.String(),
		TargetID:      a.TargetID,
		TargetName:    a.TargetName,
		PerformedBy:   a.PerformedBy.String(),
		PerformerName: a.PerformerName,
		Detail:        a.Detail,
		CreatedAt:     a.CreatedAt,
	}
}

type notificationView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	CreatorName string     `json:"creatorName"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	DeliveredAt time.Time  `json:"deliveredAt"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toNotificationView(n notifications.UserNotification) notificationView {
	return notificationView{
		ID:          n.Notification.ID.String(),
		Title:       n.Notification.Title,
		Message:     n.Notification.Message,
		Category:    n.Notification.Category.String(),
		Priority:    n.Notification.Priority.String(),
		CreatorName: n.Notification.CreatorName,
		ExpiresAt:   n.Notification.ExpiresAt,
		DeliveredAt: n.DeliveredAt,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.Notification.CreatedAt,
	}
}

type adminUserView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAdminUserView(u models.AdminUser) adminUserView {
	return adminUserView{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
