// Package judge runs practice code on a hosted Judge0 instance.
package judge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3/client"
)

const (
	DefaultBaseURL = "https://judge0-ce.p.rapidapi.com"
	DefaultHost    = "judge0-ce.p.rapidapi.com"
)

var (
	ErrInvalidSubmission = errors.New("judge: source code and language id are required")
	ErrNotConfigured     = errors.New("judge: code execution service is not configured")
)

// StatusError is returned when Judge0 answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("judge: code execution failed: %d", e.Code)
}

// Config points the client at a Judge0 deployment.
type Config struct {
	BaseURL string
	APIKey  string
	Host    string
	Timeout time.Duration
}

// Submission is one program to run.
type Submission struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin"`
}

// Result is the outcome of a run. Everything but the status may be absent.
type Result struct {
	Stdout            *string `json:"stdout"`
	Stderr            *string `json:"stderr"`
	CompileOutput     *string `json:"compile_output"`
	StatusID          int     `json:"status_id"`
	StatusDescription string  `json:"status"`
	TimeMs            *int    `json:"time_ms"`
	MemoryKb          *int    `json:"memory_kb"`
}

// Client talks to Judge0 over the RapidAPI gateway.
type Client struct {
	http   *client.Client
	apiKey string
	host   string
}

// New creates a Client. Empty BaseURL and Host fall back to the public
// RapidAPI deployment.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc := client.New()
	hc.SetBaseURL(cfg.BaseURL)
	hc.SetTimeout(cfg.Timeout)

	return &Client{http: hc, apiKey: cfg.APIKey, host: cfg.Host}
}

// judge0Result is the subset of the Judge0 submission payload we read.
type judge0Result struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	Status        *struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Time   *string `json:"time"`
	Memory *int    `json:"memory"`
}

// Execute submits s and waits for the verdict.
func (c *Client) Execute(ctx context.Context, s Submission) (*Result, error) {
	if s.SourceCode == "" || s.LanguageID == 0 {
		return nil, ErrInvalidSubmission
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	resp, err := c.http.Post("/submissions", client.Config{
		Ctx: ctx,
		Header: map[string]string{
			"X-RapidAPI-Key":  c.apiKey,
			"X-RapidAPI-Host": c.host,
		},
		Param: map[string]string{
			"base64_encoded": "false",
			"wait":           "true",
		},
		Body: s,
	})
	if err != nil {
		return nil, fmt.Errorf("judge: submit: %w", err)
	}
	defer resp.Close()

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &StatusError{Code: code, Body: string(resp.Body())}
	}

	var raw judge0Result
	if err := resp.JSON(&raw); err != nil {
		return nil, fmt.Errorf("judge: decode result: %w", err)
	}

	res := &Result{
		Stdout:            raw.Stdout,
		Stderr:            raw.Stderr,
		CompileOutput:     raw.CompileOutput,
		StatusDescription: "Unknown",
		MemoryKb:          raw.Memory,
	}
	if raw.Status != nil {
		res.StatusID = raw.Status.ID
		res.StatusDescription = raw.Status.Description
	}
	if res.Stderr == nil && raw.Message != nil {
		res.Stderr = raw.Message
	}
	if raw.Time != nil {
		ms, err := secondsToMillis(*raw.Time)
		if err != nil {
			return nil, fmt.Errorf("judge: decode time %q: %w", *raw.Time, err)
		}
		res.TimeMs = &ms
	}

	return res, nil
}

// secondsToMillis converts Judge0's decimal seconds, e.g. "0.012".
func secondsToMillis(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f * 1000)), nil
}
