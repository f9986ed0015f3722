package songlink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/curiofm/curio-backend/internal/domain/music"
)

// ParseMusicURL accepts only absolute http(s) urls with a host.
func ParseMusicURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("url must use http or https")
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("url must include a host")
	}
	return u, nil
}

// DetectPlatform maps a music url to a platform key by host.
func DetectPlatform(raw string) string {
	u, err := ParseMusicURL(raw)
	if err != nil {
		return music.PlatformOther
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "open.spotify.com" || host == "spotify.link" || host == "play.spotify.com":
		return music.PlatformSpotify
	case host == "music.apple.com" || host == "itunes.apple.com":
		return music.PlatformAppleMusic
	case host == "music.youtube.com":
		return music.PlatformYouTubeMusic
	case host == "youtube.com" || host == "m.youtube.com" || host == "youtu.be":
		return music.PlatformYouTube
	case host == "soundcloud.com" || host == "on.soundcloud.com" || host == "m.soundcloud.com":
		return music.PlatformSoundCloud
	case host == "tidal.com" || host == "listen.tidal.com":
		return music.PlatformTidal
	default:
		return music.PlatformOther
	}
}
