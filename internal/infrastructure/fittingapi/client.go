package fittingapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/batikgram/internal/infrastructure/resilience"
)

const (
	defaultHTTPTimeout = 90 * time.Second
	maxResponseBytes   = 32 << 20

	operationFitting  = "virtual_fitting"
	operationPatterns = "list_patterns"
	operationChat     = "chatbot"
	operationSave     = "save_photo"
	operationHealth   = "health"

	DefaultPatternsPath = "/patterns"
)

type Config struct {
	BaseURL     string
	AccessToken string
	HTTPTimeout time.Duration
	// PatternsPath is the listing endpoint. Older service builds serve
	// /get_batik_patterns.
	PatternsPath string
}

// Client talks to the external fitting service. One client serves fitting,
// pattern listing, chat and photo saving.
type Client struct {
	baseURL      string
	patternsPath string
	token        string
	httpClient   *http.Client
	executor     *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{BreakerEnabled: false})
	}
	patternsPath := strings.TrimSpace(cfg.PatternsPath)
	if patternsPath == "" {
		patternsPath = DefaultPatternsPath
	}
	if !strings.HasPrefix(patternsPath, "/") {
		patternsPath = "/" + patternsPath
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		patternsPath: patternsPath,
		token:        strings.TrimSpace(cfg.AccessToken),
		httpClient:   &http.Client{Timeout: timeout},
		executor:     executor,
	}
}
