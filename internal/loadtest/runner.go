// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loadtest

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/quizsmith/pkg/types"
)

const (
	defaultConcurrentUsers = 50
	correctAnswerBias      = 0.40
	repeatQuizChance       = 0.20
	progressEvery          = 50
)

// Stats holds the counters from a load test run.
type Stats struct {
	UsersCompleted    int
	QuizzesTaken      int
	SubmissionsOK     int
	SubmissionsFailed int
	LoginsOK          int
	LoginsFailed      int
	Errors            []string
	Duration          time.Duration
}

// Runner simulates a population of users taking quizzes against the
// backend.
type Runner struct {
	cfg     types.LoadTestConfig
	client  *Client
	users   []User
	quizzes []Quiz

	mu           sync.Mutex
	stats        Stats
	inflight     int
	limitReached bool
}

// NewRunner builds a Runner over the given users. NumUsers from the
// configuration truncates the user list when set.
func NewRunner(cfg types.LoadTestConfig, client *Client, users []User) *Runner {
	if cfg.NumUsers > 0 && cfg.NumUsers < len(users) {
		users = users[:cfg.NumUsers]
	}
	return &Runner{cfg: cfg, client: client, users: users}
}

// Run fetches the quizzes and replays every user session, bounded by the
// configured concurrency. Progress and the final summary go to w.
func (r *Runner) Run(ctx context.Context, w io.Writer) (Stats, error) {
	quizzes, err := r.client.FetchQuizzes(ctx)
	if err != nil {
		return Stats{}, err
	}
	if len(quizzes) == 0 {
		return Stats{}, fmt.Errorf("no quizzes found; is the backend seeded?")
	}
	r.quizzes = quizzes

	fmt.Fprintf(w, "loaded %d quizzes:\n", len(quizzes))
	for _, q := range quizzes {
		fmt.Fprintf(w, "  - %s (%d questions)\n", q.Name, len(q.Questions))
	}

	concurrent := r.cfg.ConcurrentUsers
	if concurrent <= 0 {
		concurrent = defaultConcurrentUsers
	}

	seed := r.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Fprintf(w, "\nstarting load test: %d users, %d concurrent\n\n", len(r.users), concurrent)
	start := time.Now()

	// rand.Rand is not safe for concurrent use; each user gets its own
	// source derived from the base seed.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrent)
	for i := range r.users {
		user := r.users[i]
		rng := rand.New(rand.NewSource(seed + int64(i)))
		g.Go(func() error {
			r.simulateUser(gctx, rng, user, w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return r.snapshot(time.Since(start)), err
	}

	stats := r.snapshot(time.Since(start))
	printResults(w, stats, len(r.users), r.cfg.MaxSubmissions, r.limitReached)
	return stats, nil
}

func (r *Runner) snapshot(d time.Duration) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.stats
	stats.Duration = d
	return stats
}

// simulateUser runs one user's session: login, pick quizzes, take them.
func (r *Runner) simulateUser(ctx context.Context, rng *rand.Rand, user User, w io.Writer) {
	ok, err := r.client.LookupUser(ctx, &user)
	if err != nil {
		r.recordError(fmt.Sprintf("login lookup for %s: %v", user.Username, err))
		ok = false
	}

	r.mu.Lock()
	if ok {
		r.stats.LoginsOK++
	} else {
		r.stats.LoginsFailed++
	}
	r.mu.Unlock()

	if !ok {
		r.userDone(w)
		return
	}

	for _, quiz := range r.pickQuizzes(rng) {
		r.mu.Lock()
		stop := r.limitReached
		r.mu.Unlock()
		if stop || ctx.Err() != nil {
			break
		}

		r.takeQuiz(ctx, rng, user, quiz)

		sleepRange(ctx, rng, r.cfg.ThinkTimeMin, r.cfg.ThinkTimeMax)
	}

	r.userDone(w)
}

func (r *Runner) userDone(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.UsersCompleted++
	if r.stats.UsersCompleted%progressEvery == 0 {
		fmt.Fprintf(w, "progress: %d/%d users (%d quizzes taken)\n",
			r.stats.UsersCompleted, len(r.users), r.stats.QuizzesTaken)
	}
}

// pickQuizzes chooses which quizzes this user takes. The count follows the
// observed distribution of real sessions: half the users take one quiz,
// and a long tail takes up to five. Each picked quiz has a chance of being
// taken twice.
func (r *Runner) pickQuizzes(rng *rand.Rand) []Quiz {
	count := quizCount(rng)

	shuffled := make([]Quiz, len(r.quizzes))
	copy(shuffled, r.quizzes)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count > len(shuffled) {
		count = len(shuffled)
	}

	var picked []Quiz
	for _, quiz := range shuffled[:count] {
		picked = append(picked, quiz)
		if rng.Float64() < repeatQuizChance {
			picked = append(picked, quiz)
		}
	}
	return picked
}

func quizCount(rng *rand.Rand) int {
	switch v := rng.Float64(); {
	case v < 0.50:
		return 1
	case v < 0.75:
		return 2
	case v < 0.90:
		return 3
	case v < 0.97:
		return 4
	default:
		return 5
	}
}

// takeQuiz answers every question with simulated pacing and posts the
// result, updating the run counters.
func (r *Runner) takeQuiz(ctx context.Context, rng *rand.Rand, user User, quiz Quiz) {
	sleepRange(ctx, rng, r.cfg.ThinkTimeMin, r.cfg.ThinkTimeMax)

	var answerIDs []int
	correct := 0
	for _, q := range quiz.Questions {
		sleepRange(ctx, rng, r.cfg.AnswerTimeMin, r.cfg.AnswerTimeMax)

		if len(q.Answers) == 0 {
			continue
		}
		selected := pickAnswer(rng, q)
		answerIDs = append(answerIDs, selected.ID)
		if selected.ID == q.CorrectAnswerID {
			correct++
		}
	}

	if !r.reserveSlot() {
		return
	}

	sub := Submission{
		QuizID:         quiz.ID,
		UserID:         user.ID,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
	}
	err := r.client.SubmitQuiz(ctx, sub)
	r.settleSlot(err == nil)
	if err != nil {
		r.recordError(fmt.Sprintf("submission for %s on %s: %v", user.Username, quiz.Name, err))
		return
	}

	// Guess counters are best-effort; a failed increment does not fail
	// the submission.
	for _, id := range answerIDs {
		r.client.IncrementGuess(ctx, id)
	}
}

// reserveSlot claims a submission slot against the cap. The check counts
// in-flight submissions alongside successful ones in a single critical
// section, so concurrent users cannot all pass the check and overshoot
// the cap together.
func (r *Runner) reserveSlot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limitReached {
		return false
	}
	if r.cfg.MaxSubmissions > 0 && r.stats.SubmissionsOK+r.inflight >= r.cfg.MaxSubmissions {
		r.limitReached = true
		return false
	}
	r.inflight++
	return true
}

// settleSlot converts a reserved slot into a success or failure count.
// A failed submission releases its slot back to the cap.
func (r *Runner) settleSlot(ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight--
	r.stats.QuizzesTaken++
	if ok {
		r.stats.SubmissionsOK++
	} else {
		r.stats.SubmissionsFailed++
	}
}

// pickAnswer selects an answer, biased towards the correct one so score
// distributions resemble real users rather than uniform noise.
func pickAnswer(rng *rand.Rand, q QuizQuestion) Answer {
	if rng.Float64() < correctAnswerBias {
		for _, a := range q.Answers {
			if a.ID == q.CorrectAnswerID {
				return a
			}
		}
	}
	return q.Answers[rng.Intn(len(q.Answers))]
}

func (r *Runner) recordError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Errors = append(r.stats.Errors, msg)
}

// sleepRange pauses for a random duration in [min, max], or not at all
// when max is zero. Cancellation cuts the pause short.
func sleepRange(ctx context.Context, rng *rand.Rand, min, max time.Duration) {
	if max <= 0 {
		return
	}
	d := min
	if max > min {
		d += time.Duration(rng.Int63n(int64(max - min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func printResults(w io.Writer, stats Stats, totalUsers, maxSubmissions int, limitReached bool) {
	secs := stats.Duration.Seconds()
	fmt.Fprintf(w, "\nload test results\n")
	fmt.Fprintf(w, "  duration:      %.2fs\n", secs)
	fmt.Fprintf(w, "  users:         %d/%d completed\n", stats.UsersCompleted, totalUsers)
	fmt.Fprintf(w, "  logins:        %d ok, %d failed\n", stats.LoginsOK, stats.LoginsFailed)
	fmt.Fprintf(w, "  quizzes taken: %d\n", stats.QuizzesTaken)
	fmt.Fprintf(w, "  submissions:   %d ok, %d failed\n", stats.SubmissionsOK, stats.SubmissionsFailed)
	if secs > 0 {
		fmt.Fprintf(w, "  throughput:    %.2f quizzes/s\n", float64(stats.QuizzesTaken)/secs)
	}

	if limitReached {
		fmt.Fprintf(w, "\nsubmission limit reached (%d submissions)\n", maxSubmissions)
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintf(w, "\nerrors (%d):\n", len(stats.Errors))
		show := stats.Errors
		if len(show) > 10 {
			show = show[:10]
		}
		for _, e := range show {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		if len(stats.Errors) > 10 {
			fmt.Fprintf(w, "  ... and %d more\n", len(stats.Errors)-10)
		}
	}
}
