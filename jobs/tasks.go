package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hoamai/storefront/internal/checkout"
)

const (
	// QueueCritical carries customer-facing notifications.
	QueueCritical = "critical"
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskOrderNotify relays a placed order to the shop webhook.
	TaskOrderNotify = "order:notify"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// OrderNotifyPayload is the message delivered to shop staff.
type OrderNotifyPayload struct {
	OrderID       string    `json:"orderId"`
	Product       string    `json:"product"`
	Variant       string    `json:"variant,omitempty"`
	SKU           string    `json:"sku,omitempty"`
	Purchaser     string    `json:"purchaser"`
	PurchaserTel  string    `json:"purchaserPhone"`
	Recipient     string    `json:"recipient"`
	RecipientTel  string    `json:"recipientPhone"`
	Address       string    `json:"address"`
	District      string    `json:"district,omitempty"`
	Province      string    `json:"province,omitempty"`
	IsGift        bool      `json:"isGift"`
	Delivery      string    `json:"delivery"`
	CardMessage   string    `json:"cardMessage,omitempty"`
	Note          string    `json:"note,omitempty"`
	CouponCode    string    `json:"couponCode,omitempty"`
	SalePrice     int64     `json:"salePrice"`
	ShippingFee   int64     `json:"shippingFee"`
	Discount      int64     `json:"discount"`
	TotalPrice    int64     `json:"totalPrice"`
	PaymentMethod string    `json:"paymentMethod"`
	PlacedAt      time.Time `json:"placedAt"`
}

// NewOrderNotifyPayload flattens an order into the webhook message.
func NewOrderNotifyPayload(order checkout.Order) OrderNotifyPayload {
	delivery := "now"
	if !order.Delivery.DeliverNow {
		delivery = order.Delivery.Date
		if order.Delivery.Session != "" {
			delivery += " " + order.Delivery.Session
		}
	}
	return OrderNotifyPayload{
		OrderID:       order.ID,
		Product:       order.Item.ProductTitle,
		Variant:       order.Item.VariantName,
		SKU:           order.Item.SKU,
		Purchaser:     order.Purchaser.Name,
		PurchaserTel:  order.Purchaser.Phone,
		Recipient:     order.Recipient.Name,
		RecipientTel:  order.Recipient.Phone,
		Address:       order.Recipient.Address,
		District:      order.Address.District,
		Province:      order.Address.Province,
		IsGift:        order.IsGift,
		Delivery:      delivery,
		CardMessage:   order.CardMessage,
		Note:          order.Note,
		CouponCode:    order.CouponCode,
		SalePrice:     order.SalePrice,
		ShippingFee:   order.ShippingFee,
		Discount:      order.DiscountAmount,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: string(order.PaymentMethod),
		PlacedAt:      order.CreatedAt,
	}
}

// NewOrderNotifyTask constructs an Asynq task.
func NewOrderNotifyTask(payload OrderNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotify, data), nil
}

// IdempotencyCleanupPayload configures the key retention window.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retentionHours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
