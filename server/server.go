package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"github.com/zeu5/keygrid-rl/types"
	"k8s.io/klog/v2"
)

// Trainer is the training loop the server drives and observes
type Trainer interface {
	Run(context.Context) (*types.RunResult, error)
	Running() bool
	History() *metrics.History
	Config() types.Config
	AddObserver(types.Observer)
}

// Status is the live view of the trainer
type Status struct {
	Running      bool            `json:"running"`
	RunID        string          `json:"run_id,omitempty"`
	Episode      int             `json:"episode"`
	Episodes     int             `json:"episodes"`
	Step         int             `json:"step"`
	Position     grid.Coordinate `json:"position"`
	HasKey       bool            `json:"has_key"`
	KeyVisible   bool            `json:"key_visible"`
	Epsilon      float64         `json:"epsilon"`
	FirstSuccess int             `json:"first_success"`
	LastError    string          `json:"last_error,omitempty"`
}

// Server exposes a trainer over HTTP. It registers itself as an
// observer of the trainer and serves the state it sees.
type Server struct {
	Addr    string
	trainer Trainer
	server  *http.Server
	metrics *trainingMetrics

	ctx context.Context
	wg  sync.WaitGroup

	lock     *sync.Mutex
	starting bool
	status   Status
	last     *types.RunResult
}

var _ types.Observer = &Server{}
var _ types.EpisodeObserver = &Server{}
var _ types.RunObserver = &Server{}

func NewServer(ctx context.Context, addr string, trainer Trainer) *Server {
	s := &Server{
		Addr:    addr,
		trainer: trainer,
		metrics: newTrainingMetrics(),
		ctx:     ctx,
		lock:    new(sync.Mutex),
		status: Status{
			Position:     trainer.Config().Start,
			KeyVisible:   true,
			FirstSuccess: metrics.NoSuccess,
		},
	}
	trainer.AddObserver(s)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	r.GET("/status", s.handleStatus)
	r.GET("/episodes", s.handleEpisodes)
	r.GET("/summary", s.handleSummary)
	r.POST("/runs", s.handleStartRun)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler returns the routes, used to serve the API without listening
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens until the context is cancelled, then waits for the
// active run to stop at the next episode boundary
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("Starting server", "addr", s.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-s.ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.wg.Wait()
	return err
}

// StartRun starts a training run in the background. It returns
// types.ErrRunInProgress if a run is already active.
func (s *Server) StartRun() error {
	s.lock.Lock()
	if s.starting || s.trainer.Running() {
		s.lock.Unlock()
		return types.ErrRunInProgress
	}
	s.starting = true
	s.lock.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := s.trainer.Run(s.ctx)

		s.lock.Lock()
		defer s.lock.Unlock()
		s.starting = false
		s.status.Running = false
		s.metrics.running.Set(0)
		switch {
		case err == nil:
			s.status.LastError = ""
			s.metrics.runs.WithLabelValues("completed").Inc()
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			s.status.LastError = err.Error()
			s.metrics.runs.WithLabelValues("cancelled").Inc()
		default:
			klog.ErrorS(err, "Training run failed")
			s.status.LastError = err.Error()
			s.metrics.runs.WithLabelValues("failed").Inc()
		}
		if result != nil {
			s.last = result
		}
	}()
	return nil
}

// Wait blocks until the runs started by the server are done
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	st := s.status
	st.Running = s.starting
	return st
}

func (s *Server) OnRunStart(runID string, episodes int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status = Status{
		Running:      true,
		RunID:        runID,
		Episodes:     episodes,
		Position:     s.trainer.Config().Start,
		KeyVisible:   true,
		Epsilon:      s.trainer.Config().Epsilon,
		FirstSuccess: metrics.NoSuccess,
	}
	s.metrics.running.Set(1)
}

func (s *Server) OnRunEnd(result *types.RunResult) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Epsilon = result.FinalEpsilon
	s.status.FirstSuccess = result.FirstSuccess
}

func (s *Server) OnStep(e types.StepEvent) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Episode = e.Episode
	s.status.Step = e.Step
	s.status.Position = e.Position
	s.status.HasKey = e.HasKey
}

func (s *Server) OnKeyVisible(visible bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.KeyVisible = visible
	if visible {
		s.status.Step = 0
		s.status.Position = s.trainer.Config().Start
		s.status.HasKey = false
	}
}

func (s *Server) OnEpisode(r metrics.EpisodeRecord) {
	window := s.trainer.History().Window(s.trainer.Config().SummaryWindow)
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Epsilon = r.Epsilon
	if r.Success && s.status.FirstSuccess == metrics.NoSuccess {
		s.status.FirstSuccess = r.Episode
	}
	s.metrics.observeEpisode(r, window)
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.Status())
}

func (s *Server) handleStartRun(c *gin.Context) {
	if err := s.StartRun(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "run started"})
}

// handleEpisodes returns the records of the current or last run,
// the optional last query parameter limits the response to the most recent ones
func (s *Server) handleEpisodes(c *gin.Context) {
	h := s.trainer.History()
	records := h.Records()
	if lastS := c.Query("last"); lastS != "" {
		last, err := strconv.Atoi(lastS)
		if err != nil || last < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last parameter"})
			return
		}
		records = h.Last(last)
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSummary(c *gin.Context) {
	cfg := s.trainer.Config()
	summary := metrics.Summarize(cfg.Params(), s.trainer.History(), cfg.SummaryWindow)
	c.JSON(http.StatusOK, gin.H{
		"summary": summary,
		"text":    summary.Text(),
	})
}
