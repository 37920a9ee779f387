// Package firebase builds the Firebase app and its clients from
// configuration. Callers own the returned clients.
package firebase

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/BruksfildServices01/haircut-booking/internal/config"
)

// credentialsJSON returns the service account key, preferring the
// base64 variable over the key file.
func credentialsJSON(cfg *config.Config) ([]byte, error) {
	if cfg.FirebaseKeyBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(cfg.FirebaseKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("decode FIREBASE_ADMIN_KEY_BASE64: %w", err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(cfg.FirebaseKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read firebase key file: %w", err)
	}
	return raw, nil
}

func NewApp(ctx context.Context, cfg *config.Config) (*fb.App, error) {
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	var fbCfg *fb.Config
	if cfg.FirebaseProjectID != "" {
		fbCfg = &fb.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := fb.NewApp(ctx, fbCfg, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

func NewAuth(ctx context.Context, app *fb.App) (*auth.Client, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}

func NewFirestore(ctx context.Context, app *fb.App) (*firestore.Client, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore: %w", err)
	}
	return client, nil
}
