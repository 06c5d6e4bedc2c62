// Package sdk defines the rendering SDK surface the widget drives. The SDK
// turns audio byte streams into an on-screen avatar; everything behind
// Client is opaque to the rest of the module.
package sdk

import "context"

// Config carries the SDK initialization parameters.
type Config struct {
	APIKey        string `json:"apiKey"`
	FaceID        string `json:"faceId"`
	HandleSilence bool   `json:"handleSilence"`
}

// Client is the opaque rendering client. Implementations must tolerate
// Close being called more than once.
type Client interface {
	Initialize(ctx context.Context, cfg Config) error
	Start(ctx context.Context) error
	SendAudioData(data []byte) error
	Close() error
}
