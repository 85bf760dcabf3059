package utils

import (
    "errors"
    "testing"
)

func TestGetDomainFromURL(t *testing.T) {
    inputURL := "https://www.example.com/test"
    domain, err := GetDomainFromURL(inputURL)
    if err != nil {
        t.Fatalf("GetDomainFromURL returned error: %v", err)
    }
    if domain != "example.com" {
        t.Errorf("Expected domain 'example.com', got '%s'", domain)
    }
}

func TestBuildFullUrl(t *testing.T) {
    shortUrl := "example.com/test"
    fullUrl, err := BuildFullUrl(shortUrl)
    if err != nil {
        t.Fatalf("BuildFullUrl returned error: %v", err)
    }
    if fullUrl != "https://example.com/test" {
        t.Errorf("Expected full URL 'https://example.com/test', got '%s'", fullUrl)
    }
}

func TestParseAbsolute(t *testing.T) {
    tests := []struct {
        raw     string
        wantErr bool
    }{
        {"https://ru.wikipedia.org/wiki/Категория:Животные_по_алфавиту", false},
        {"http://127.0.0.1:8080/", false},
        {"ru.wikipedia.org/wiki", true},
        {"ftp://example.com/file", true},
        {"https://", true},
        {"://bad", true},
    }
    for _, tt := range tests {
        t.Run(tt.raw, func(t *testing.T) {
            _, err := ParseAbsolute(tt.raw)
            if tt.wantErr && err == nil {
                t.Errorf("expected an error for %q", tt.raw)
            }
            if !tt.wantErr && err != nil {
                t.Errorf("unexpected error for %q: %v", tt.raw, err)
            }
        })
    }

    _, err := ParseAbsolute("example.com")
    if !errors.Is(err, ErrNotAbsolute) {
        t.Errorf("expected ErrNotAbsolute, got %v", err)
    }
}

func TestJoinURL(t *testing.T) {
    tests := []struct {
        name string
        base string
        ref  string
        want string
    }{
        {
            name: "root relative link does not double the slash",
            base: "https://ru.wikipedia.org/",
            ref:  "/w/index.php?title=Cat&pagefrom=B",
            want: "https://ru.wikipedia.org/w/index.php?title=Cat&pagefrom=B",
        },
        {
            name: "path relative to base",
            base: "https://ru.wikipedia.org/",
            ref:  "wiki/Category",
            want: "https://ru.wikipedia.org/wiki/Category",
        },
        {
            name: "absolute link wins",
            base: "https://ru.wikipedia.org/",
            ref:  "https://example.com/next",
            want: "https://example.com/next",
        },
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            got, err := JoinURL(tt.base, tt.ref)
            if err != nil {
                t.Fatalf("JoinURL returned error: %v", err)
            }
            if got != tt.want {
                t.Errorf("expected %q, got %q", tt.want, got)
            }
        })
    }

    if _, err := JoinURL("not a url", "/x"); err == nil {
        t.Error("expected an error for a relative base")
    }
}
