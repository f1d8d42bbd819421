package notify

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/desktop"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const (
	toastDuration        = 12 * time.Second
	toastImageTTL        = 15 * time.Second
	toastCleanupInterval = 5 * time.Second
	imageDownloadTimeout = 10 * time.Second
	toastTitleLimit      = 80
)

type toaster interface {
	Show(ctx context.Context, toast desktop.Toast) error
}

// Toast shows a clickable desktop notification with the listing thumbnail.
// Downloaded thumbnails are removed shortly after the toast regardless of user interaction.
type Toast struct {
	toaster    toaster
	httpClient HTTPClient
	imageDir   string
	images     *cache.Cache
}

func NewToast(toaster toaster) *Toast {
	images := cache.New(toastImageTTL, toastCleanupInterval)
	images.OnEvicted(func(_ string, value interface{}) {
		if path, ok := value.(string); ok {
			_ = os.Remove(path)
		}
	})

	return &Toast{
		toaster:    toaster,
		httpClient: &http.Client{Timeout: imageDownloadTimeout},
		imageDir:   filepath.Join(os.TempDir(), "vinted_monitor"),
		images:     images,
	}
}

func (t *Toast) SetHTTPClient(client HTTPClient) {
	t.httpClient = client
}

func (t *Toast) Name() string {
	return "Toast"
}

func (t *Toast) Notify(ctx context.Context, listing entities.Listing, searchName string) error {
	iconPath := ""
	if listing.HasImage() {
		path, err := t.downloadImage(ctx, listing.ImageURL)
		if err != nil {
			log.Debugf("Failed to download toast image for %s: %v", listing.ID, err)
		} else {
			iconPath = path
			t.images.SetDefault(path, path)
		}
	}

	title := listing.Title
	if len([]rune(title)) > toastTitleLimit {
		title = entities.Truncate(title, toastTitleLimit) + "..."
	}

	err := t.toaster.Show(ctx, desktop.Toast{
		Title:    "🔍 New Vinted Listing",
		Message:  fmt.Sprintf("%s:\n%s\n\nClick to open listing!", searchName, title),
		IconPath: iconPath,
		Duration: toastDuration,
		Action: &entities.ListingAction{
			Kind:  entities.ActionOpenListing,
			URL:   listing.URL,
			Title: listing.Title,
		},
	})
	if err != nil {
		return err
	}

	log.Info("Desktop toast notification sent successfully")
	return nil
}

func (t *Toast) imagePath(imageURL string) string {
	sum := md5.Sum([]byte(imageURL))
	return filepath.Join(t.imageDir, "listing_"+hex.EncodeToString(sum[:])[:10]+".jpg")
}

func (t *Toast) downloadImage(ctx context.Context, imageURL string) (string, error) {
	path := t.imagePath(imageURL)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(t.imageDir, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download responded with status %d", resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	return path, file.Close()
}

// Close removes every thumbnail still waiting for cleanup.
func (t *Toast) Close() {
	for path := range t.images.Items() {
		_ = os.Remove(path)
	}
	t.images.Flush()
}
