// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loadtest drives a quiz backend with simulated users. It fetches
// the published quizzes over the backend's REST API, replays user sessions
// with realistic pacing, and reports throughput and failure counts.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/quizsmith/internal/httputil"
	"github.com/pdiddy/quizsmith/pkg/types"
)

// User is a simulated quiz taker, parsed from the seed file. ID is filled
// in by LookupUser.
type User struct {
	Username string
	Email    string
	FullName string
	ID       int
}

// Answer is one answer row as the backend stores it.
type Answer struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"question_id"`
	Text       string `json:"answer_text"`
	Label      string `json:"answer_label"`
}

// QuizQuestion is one question row with its answers attached.
type QuizQuestion struct {
	ID              int    `json:"id"`
	Text            string `json:"question_text"`
	Kind            string `json:"question_type"`
	OrderIndex      int    `json:"order_index"`
	CorrectAnswerID int    `json:"correct_answer_id"`
	Answers         []Answer
}

// Quiz is a backend quiz with its full question list.
type Quiz struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Questions []QuizQuestion
}

// Submission is the record posted when a simulated user finishes a quiz.
// ClientRef lets a run's submissions be identified in the backend.
type Submission struct {
	QuizID         int    `json:"quiz_id"`
	UserID         int    `json:"user_id,omitempty"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	ClientRef      string `json:"client_ref,omitempty"`
}

// Client talks to the quiz backend's REST API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	agent   string
}

// NewClient builds a backend client from the load test configuration.
func NewClient(cfg types.LoadTestConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		agent:   cfg.UserAgent,
	}
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, body)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchQuizzes retrieves every quiz along with its questions and answers.
// Quizzes whose question or answer fetch fails are skipped.
func (c *Client) FetchQuizzes(ctx context.Context) ([]Quiz, error) {
	var quizzes []Quiz
	if err := c.getJSON(ctx, "/rest/v1/quizzes?select=id,name", &quizzes); err != nil {
		return nil, fmt.Errorf("fetching quizzes: %w", err)
	}

	var out []Quiz
	for _, quiz := range quizzes {
		qPath := fmt.Sprintf(
			"/rest/v1/questions?quiz_id=eq.%d&select=id,question_text,question_type,order_index,correct_answer_id&order=order_index",
			quiz.ID)
		var questions []QuizQuestion
		if err := c.getJSON(ctx, qPath, &questions); err != nil || len(questions) == 0 {
			continue
		}

		ids := make([]string, len(questions))
		for i, q := range questions {
			ids[i] = strconv.Itoa(q.ID)
		}
		aPath := fmt.Sprintf(
			"/rest/v1/answers?question_id=in.(%s)&select=id,question_id,answer_text,answer_label&order=answer_label",
			strings.Join(ids, ","))
		var answers []Answer
		if err := c.getJSON(ctx, aPath, &answers); err != nil {
			continue
		}

		byQuestion := make(map[int][]Answer)
		for _, a := range answers {
			byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
		}
		for i := range questions {
			questions[i].Answers = byQuestion[questions[i].ID]
		}

		quiz.Questions = questions
		out = append(out, quiz)
	}

	return out, nil
}

// LookupUser resolves the user's backend ID by username, simulating a
// login. It reports false when the user does not exist.
func (c *Client) LookupUser(ctx context.Context, u *User) (bool, error) {
	path := "/rest/v1/users?username=eq." + url.QueryEscape(u.Username) +
		"&select=id,username,email,full_name"

	var rows []struct {
		ID int `json:"id"`
	}
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	u.ID = rows[0].ID
	return true, nil
}

// SubmitQuiz posts a finished quiz attempt. A fresh client_ref is attached
// so the run can be traced in the backend.
func (c *Client) SubmitQuiz(ctx context.Context, sub Submission) error {
	sub.ClientRef = uuid.NewString()
	return c.postJSON(ctx, "/rest/v1/submissions", sub)
}

// IncrementGuess bumps the guess counter for one answer. Failures here do
// not fail the submission; callers ignore the error.
func (c *Client) IncrementGuess(ctx context.Context, answerID int) error {
	return c.postJSON(ctx, "/rest/v1/rpc/increment_answer_guess",
		map[string]int{"answer_id": answerID})
}
