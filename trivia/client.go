// Package trivia fetches quiz questions from the Open Trivia Database.
package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/m3rciful/quizbot/core/buildinfo"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/netutil"
	"github.com/m3rciful/quizbot/quiz"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultMaxConcurrent = 4
	maxBodyBytes         = 1 << 20
	questionType         = "multiple"
)

// Options configures NewClient.
type Options struct {
	BaseURL string
	// Timeout bounds one fetch including retries.
	Timeout time.Duration
	// Retries is the number of extra attempts on transient failures; 0 disables them.
	Retries       int
	MaxConcurrent int
	// HTTPClient overrides the retrying client built from the fields above.
	HTTPClient *http.Client
	// Shuffle permutes answer options; defaults to math/rand/v2.
	Shuffle func(n int, swap func(i, j int))
}

// Client implements quiz.QuestionSource.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	sem     *semaphore.Weighted
	shuffle func(n int, swap func(i, j int))
}

var _ quiz.QuestionSource = (*Client)(nil)

type apiResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// NewClient builds a client from opts.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Shuffle == nil {
		opts.Shuffle = rand.Shuffle
	}
	hc := opts.HTTPClient
	if hc == nil {
		retries := opts.Retries
		if retries <= 0 {
			retries = -1
		}
		hc = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:         opts.Timeout,
			ResponseTimeout: opts.Timeout,
			Retries:         retries,
			Backoff:         500 * time.Millisecond,
			UserAgent:       "quizbot/" + buildinfo.Version,
		})
	}
	return &Client{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
		http:    hc,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		shuffle: opts.Shuffle,
	}
}

// Fetch requests quiz.QuestionsPerQuiz multiple-choice questions.
// Every failure is reported as a quiz.ErrSourceUnavailable match.
func (c *Client) Fetch(ctx context.Context, categoryID int, d quiz.Difficulty) ([]quiz.Question, error) {
	start := time.Now()
	questions, err := c.fetch(ctx, categoryID, d)

	attrs := []slog.Attr{
		slog.Int("category_id", categoryID),
		slog.String("difficulty", string(d)),
		slog.Int("count", len(questions)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Warn(ctx, "trivia", "trivia.fetch", attrs...)
		return nil, quiz.SourceUnavailable(err)
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.Info(ctx, "trivia", "trivia.fetch", attrs...)
	return questions, nil
}

func (c *Client) fetch(ctx context.Context, categoryID int, d quiz.Difficulty) ([]quiz.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for fetch slot: %w", err)
	}
	defer c.sem.Release(1)

	endpoint, err := c.endpoint(categoryID, d)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var payload apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("response_code %d", payload.ResponseCode)
	}

	questions := c.convert(payload.Results)
	if len(questions) == 0 {
		return nil, errors.New("no usable questions")
	}
	return questions, nil
}

func (c *Client) endpoint(categoryID int, d quiz.Difficulty) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(quiz.QuestionsPerQuiz))
	q.Set("category", strconv.Itoa(categoryID))
	q.Set("difficulty", string(d))
	q.Set("type", questionType)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// convert unescapes HTML entities and shuffles options; items without a
// prompt or correct answer are dropped.
func (c *Client) convert(items []apiQuestion) []quiz.Question {
	out := make([]quiz.Question, 0, len(items))
	for _, it := range items {
		if len(out) == quiz.QuestionsPerQuiz {
			break
		}
		prompt := html.UnescapeString(it.Question)
		correct := html.UnescapeString(it.CorrectAnswer)
		if strings.TrimSpace(prompt) == "" || strings.TrimSpace(correct) == "" {
			continue
		}
		options := make([]string, 0, len(it.IncorrectAnswers)+1)
		options = append(options, correct)
		for _, inc := range it.IncorrectAnswers {
			options = append(options, html.UnescapeString(inc))
		}
		c.shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
		out = append(out, quiz.Question{Prompt: prompt, Correct: correct, Options: options})
	}
	return out
}
