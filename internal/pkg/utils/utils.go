package utils

import (
    "errors"
    "fmt"
    "net/url"
    "strings"
)

var ErrNotAbsolute = errors.New("URL must be absolute with an http or https scheme")

// Extracts the host domain from a URL.
func GetDomainFromURL(inputURL string) (string, error) {
    if !strings.HasPrefix(inputURL, "http://") && !strings.HasPrefix(inputURL, "https://") {
        inputURL = "https://" + inputURL
    }
    parsedURL, err := url.Parse(inputURL)
    if err != nil {
        return "", errors.New("error parsing URL")
    }
    return strings.TrimPrefix(parsedURL.Hostname(), "www."), nil
}

// Constructs the full URL from a short URL.
func BuildFullUrl(shortUrl string) (string, error) {
    // Prepend scheme if missing
    if !strings.HasPrefix(shortUrl, "http://") && !strings.HasPrefix(shortUrl, "https://") {
        shortUrl = "https://" + shortUrl
    }
    parsedURL, err := url.Parse(shortUrl)
    if err != nil {
        return "", fmt.Errorf("invalid URL %v: %v", shortUrl, err)
    }
    return parsedURL.String(), nil
}

// Parses rawURL and requires an absolute http(s) URL with a host.
func ParseAbsolute(rawURL string) (*url.URL, error) {
    parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
    if err != nil {
        return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
    }
    if (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
        return nil, fmt.Errorf("invalid URL %q: %w", rawURL, ErrNotAbsolute)
    }
    return parsedURL, nil
}

// Resolves a link found on a page (usually a root-relative path such as
// "/w/index.php?title=...&pagefrom=...") against the site base URL.
func JoinURL(baseURL, ref string) (string, error) {
    base, err := ParseAbsolute(baseURL)
    if err != nil {
        return "", err
    }
    link, err := url.Parse(strings.TrimSpace(ref))
    if err != nil {
        return "", fmt.Errorf("invalid link %q: %w", ref, err)
    }
    return base.ResolveReference(link).String(), nil
}
