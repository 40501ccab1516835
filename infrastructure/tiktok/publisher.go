package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/ofertazap/ofertazap/core/config"
	"github.com/ofertazap/ofertazap/domains/channel"
	"github.com/ofertazap/ofertazap/domains/program"
)

// Publisher posts composed content to TikTok through the content posting
// API. Depending on the program it either creates an inbox draft for manual
// review or publishes directly.
type Publisher struct {
	baseURL     string
	accessToken string
	client      *fasthttp.Client
}

func NewPublisher(cfg config.TikTokConfig) *Publisher {
	return &Publisher{
		baseURL:     cfg.APIBaseURL,
		accessToken: cfg.AccessToken,
		client: &fasthttp.Client{
			ReadTimeout:  20 * time.Second,
			WriteTimeout: 20 * time.Second,
		},
	}
}

type postRequest struct {
	PostInfo struct {
		Title        string `json:"title"`
		PrivacyLevel string `json:"privacy_level,omitempty"`
	} `json:"post_info"`
	SourceInfo struct {
		Source      string   `json:"source"`
		PhotoImages []string `json:"photo_images,omitempty"`
	} `json:"source_info"`
	PostMode  string `json:"post_mode"`
	MediaType string `json:"media_type"`
}

type postResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newPostRequest maps composed content onto the content posting payload.
// Draft mode lands in the creator's inbox for manual review; direct mode
// publishes immediately and therefore must carry a privacy level.
func newPostRequest(content channel.Content, mode program.SecondaryMode) postRequest {
	var body postRequest
	body.PostInfo.Title = content.Text
	body.SourceInfo.Source = "PULL_FROM_URL"
	if content.ImageURL != "" {
		body.SourceInfo.PhotoImages = []string{content.ImageURL}
	}
	body.MediaType = "PHOTO"
	switch mode {
	case program.SecondaryDirect:
		body.PostMode = "DIRECT_POST"
		body.PostInfo.PrivacyLevel = "PUBLIC_TO_EVERYONE"
	default:
		body.PostMode = "MEDIA_UPLOAD"
	}
	return body
}

func (p *Publisher) Publish(ctx context.Context, content channel.Content, mode program.SecondaryMode) (channel.SendResponse, error) {
	if p.accessToken == "" {
		return channel.SendResponse{}, fmt.Errorf("tiktok access token not configured")
	}

	payload, err := json.Marshal(newPostRequest(content, mode))
	if err != nil {
		return channel.SendResponse{}, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.baseURL + "/v2/post/publish/content/init/")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.SetBody(payload)

	deadline, ok := ctx.Deadline()
	if ok {
		err = p.client.DoDeadline(req, resp, deadline)
	} else {
		err = p.client.Do(req, resp)
	}
	if err != nil {
		return channel.SendResponse{}, fmt.Errorf("tiktok request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return channel.SendResponse{}, fmt.Errorf("tiktok request failed: status %d", resp.StatusCode())
	}

	var parsed postResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return channel.SendResponse{}, fmt.Errorf("tiktok response decode failed: %w", err)
	}
	if parsed.Error.Code != "" && parsed.Error.Code != "ok" {
		return channel.SendResponse{}, fmt.Errorf("tiktok error %s: %s", parsed.Error.Code, parsed.Error.Message)
	}

	logrus.Debugf("[TIKTOK] Published content as %s (mode: %s)", parsed.Data.PublishID, mode)
	return channel.SendResponse{MessageID: parsed.Data.PublishID}, nil
}
