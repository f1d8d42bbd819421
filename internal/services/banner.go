package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/pkg/ctxsleep"
)

type BannerInfo struct {
	Searches             []entities.SearchSpec
	Channels             []config.ChannelCheck
	CheckInterval        time.Duration
	MaxNotifications     int
	RandomizationPercent int
	SeenListings         int
	AIEnabled            bool
}

// PrintBanner writes the startup summary to w.
func PrintBanner(w io.Writer, info BannerInfo) {
	rule := strings.Repeat("=", 60)
	line := strings.Repeat("-", 40)

	fmt.Fprintf(w, "\n%s\n🔍 VINTED MONITOR STARTING UP (STEALTH MODE)\n%s\n", rule, rule)

	fmt.Fprintf(w, "\n📋 CONFIGURED SEARCHES (%d):\n%s\n", len(info.Searches), line)
	for i, search := range info.Searches {
		platform := search.Platform
		if platform == "" {
			platform = string(entities.Vinted)
		}
		fmt.Fprintf(w, "%d. %s\n   Platform: %s\n   URL: %s\n\n",
			i+1, search.DisplayName(), strings.ToUpper(platform), search.URL)
	}

	fmt.Fprintf(w, "%s\n📢 NOTIFICATION METHODS:\n", line)
	for _, check := range info.Channels {
		fmt.Fprintf(w, "   %s: %s\n", check.Channel, check)
	}

	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "⏰ Check Interval: %.0f minutes\n", info.CheckInterval.Minutes())
	fmt.Fprintf(w, "📢 Max Notifications per Search: %d\n", info.MaxNotifications)
	fmt.Fprintf(w, "🎲 Randomization: ±%d%%\n", info.RandomizationPercent)
	fmt.Fprintln(w, "🥷 Stealth Features: User-Agent rotation, viewport variation, human-like behavior")
	if info.AIEnabled {
		fmt.Fprintln(w, "🤖 Relevance filter: enabled for searches with a wish")
	}
	fmt.Fprintf(w, "💾 Previously Seen Listings: %d\n", info.SeenListings)
}

// Countdown prints a short countdown before monitoring starts.
func Countdown(ctx context.Context, w io.Writer, seconds int, sleep ctxsleep.Func) error {
	fmt.Fprintf(w, "\n🚀 Starting monitoring in %d seconds...\n", seconds)
	for i := seconds; i > 0; i-- {
		fmt.Fprintf(w, "   %d...\n", i)
		if err := sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	return nil
}
