package whatsapp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/group"
	"github.com/ofertazap/ofertazap/pkg/imageutils"
	pkgUtils "github.com/ofertazap/ofertazap/pkg/utils"
)

// Transport delivers composed content to WhatsApp groups through whatsmeow.
type Transport struct {
	client *whatsmeow.Client
}

func NewTransport(client *whatsmeow.Client) *Transport {
	return &Transport{client: client}
}

// Send delivers the content to a single group. With an image it uploads the
// processed bytes and sends an image message with the text as caption;
// otherwise it sends plain text.
func (t *Transport) Send(ctx context.Context, target group.Target, content channel.Content) (channel.SendResponse, error) {
	if t.client == nil {
		return channel.SendResponse{}, fmt.Errorf("no client")
	}

	jid, err := types.ParseJID(target.Handle)
	if err != nil {
		return channel.SendResponse{}, fmt.Errorf("invalid JID %s: %w", target.Handle, err)
	}

	imageData := content.ImageData
	if imageData == nil && content.ImageURL != "" {
		raw, _, _, err := pkgUtils.DownloadImageFromURL(content.ImageURL)
		if err != nil {
			return channel.SendResponse{}, err
		}
		imageData, err = imageutils.ProcessProductImage(raw)
		if err != nil {
			return channel.SendResponse{}, err
		}
	}

	var msg *waE2E.Message
	if imageData != nil {
		uploaded, err := t.client.Upload(ctx, imageData, whatsmeow.MediaImage)
		if err != nil {
			return channel.SendResponse{}, fmt.Errorf("failed to upload image: %w", err)
		}
		msg = &waE2E.Message{
			ImageMessage: &waE2E.ImageMessage{
				URL:           proto.String(uploaded.URL),
				DirectPath:    proto.String(uploaded.DirectPath),
				MediaKey:      uploaded.MediaKey,
				Mimetype:      proto.String("image/jpeg"),
				FileEncSHA256: uploaded.FileEncSHA256,
				FileSHA256:    uploaded.FileSHA256,
				FileLength:    proto.Uint64(uploaded.FileLength),
				Caption:       proto.String(content.Text),
			},
		}
	} else {
		msg = &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(content.Text),
			},
		}
	}

	resp, err := t.client.SendMessage(ctx, jid, msg)
	if err != nil {
		return channel.SendResponse{}, err
	}

	logrus.Debugf("[WHATSAPP] Sent message %s to %s", resp.ID, target.Handle)
	return channel.SendResponse{MessageID: resp.ID}, nil
}
