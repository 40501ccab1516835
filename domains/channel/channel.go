package channel

import (
	"context"

	"github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/domains/program"
)

// Content is the composed outbound payload, built once per run and delivered
// verbatim to every resolved target.
type Content struct {
	Text      string `json:"text"`
	ImageURL  string `json:"image_url,omitempty"`
	ImageData []byte `json:"-"` // processed image bytes, set when the program includes images
	ProductID string `json:"product_id"`
}

type SendResponse struct {
	MessageID string `json:"message_id"`
}

// IMessagingTransport is the external gateway (WhatsApp).
type IMessagingTransport interface {
	Send(ctx context.Context, target group.Target, content Content) (SendResponse, error)
}

// ISecondaryPublisher is the optional secondary channel (TikTok).
type ISecondaryPublisher interface {
	Publish(ctx context.Context, content Content, mode program.SecondaryMode) (SendResponse, error)
}
