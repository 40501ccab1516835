package whatsapp

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/ofertazap/ofertazap/core/config"
)

// InitClient opens the whatsmeow session store and connects the client.
// When no device is paired yet the QR code is printed to the log so the
// operator can link the account.
func InitClient(ctx context.Context, cfg config.WhatsAppConfig) (*whatsmeow.Client, error) {
	container, err := initSessionStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("whatsapp session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("whatsapp device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Stdout("Client", cfg.LogLevel, true))
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true

	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("whatsapp qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("whatsapp connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					logrus.Infof("[WHATSAPP] Scan this code to pair the account: %s", evt.Code)
				} else {
					logrus.Infof("[WHATSAPP] Login event: %s", evt.Event)
				}
			}
		}()
		return client, nil
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("whatsapp connect: %w", err)
	}
	logrus.Infof("[WHATSAPP] Connected as %s", client.Store.ID.String())
	return client, nil
}

func initSessionStore(ctx context.Context, cfg config.WhatsAppConfig) (*sqlstore.Container, error) {
	dbLog := waLog.Stdout("Database", cfg.LogLevel, true)
	if strings.HasPrefix(cfg.DBURI, "postgres:") {
		return sqlstore.New(ctx, "postgres", cfg.DBURI, dbLog)
	}
	return sqlstore.New(ctx, "sqlite3", cfg.DBURI, dbLog)
}
