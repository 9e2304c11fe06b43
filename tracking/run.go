package tracking

import "encoding/json"
import "os"
import "path/filepath"
import "sort"
import "strings"
import "sync"
import "time"

import "github.com/google/uuid"
import "github.com/pkg/errors"
import dto "github.com/prometheus/client_model/go"
import "github.com/prometheus/common/expfmt"
import "github.com/sirupsen/logrus"
import "gopkg.in/yaml.v3"

import "github.com/neurlang/kovae/config"

// File names inside the run directory.
const (
	HistoryFile = "metrics.jsonl"
	SummaryFile = "run.yaml"
	PromFile    = "metrics.prom"
)

// Point is one logged value.
type Point struct {
	Name  string    `json:"name" yaml:"name"`
	Step  int       `json:"step" yaml:"step"`
	Value float64   `json:"value" yaml:"value"`
	Time  time.Time `json:"time" yaml:"time"`
}

// Summary is the content of run.yaml.
type Summary struct {
	ID       string             `yaml:"id"`
	Tag      string             `yaml:"tag"`
	Mode     string             `yaml:"mode"`
	Started  time.Time          `yaml:"started"`
	Finished time.Time          `yaml:"finished"`
	Args     any                `yaml:"args"`
	Final    map[string]float64 `yaml:"final"`
}

// Run is one tracked run.
type Run struct {
	id   string
	mode string
	dir  string
	tag  string
	args any
	log  logrus.FieldLogger

	started time.Time

	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	last map[string]Point
	err  error

	queue chan Point
	done  chan struct{}
}

// New starts a run recording into dir. mode is one of config.TrackDebug,
// config.TrackSync or config.TrackAsync.
func New(mode, dir, tag string, args any, log logrus.FieldLogger) (*Run, error) {
	r := &Run{
		id:      uuid.NewString(),
		mode:    mode,
		dir:     dir,
		tag:     tag,
		args:    args,
		log:     log,
		started: time.Now(),
		last:    make(map[string]Point),
	}
	switch mode {
	case config.TrackDebug:
		return r, nil
	case config.TrackSync, config.TrackAsync:
	default:
		return nil, errors.Errorf("tracking: unknown mode %q", mode)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, HistoryFile))
	if err != nil {
		return nil, err
	}
	r.file = f
	r.enc = json.NewEncoder(f)

	if mode == config.TrackAsync {
		r.queue = make(chan Point, 1024)
		r.done = make(chan struct{})
		go func() {
			defer close(r.done)
			for p := range r.queue {
				r.write(p)
			}
		}()
	}
	log.WithField("run", r.id).Infof("tracking %s run in %s", mode, dir)
	return r, nil
}

// ID is the unique run id.
func (r *Run) ID() string {
	return r.id
}

// Enabled reports whether the run records anything.
func (r *Run) Enabled() bool {
	return r.mode != config.TrackDebug
}

// Log records value for the series name at step.
func (r *Run) Log(name string, step int, value float64) {
	if !r.Enabled() {
		return
	}
	p := Point{Name: name, Step: step, Value: value, Time: time.Now()}
	if r.queue != nil {
		r.queue <- p
		return
	}
	r.write(p)
}

func (r *Run) write(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last[p.Name] = p
	if r.err != nil {
		return
	}
	if err := r.enc.Encode(p); err != nil {
		r.err = errors.Wrap(err, "tracking: writing history")
		r.log.WithError(err).Warn("tracking disabled")
	}
}

// Final returns the last value of every series.
func (r *Run) Final() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := make(map[string]float64, len(r.last))
	for k, p := range r.last {
		o[k] = p.Value
	}
	return o
}

// Close flushes the history and writes the summary files. The run must not
// be logged to afterwards.
func (r *Run) Close() error {
	if !r.Enabled() {
		return nil
	}
	if r.queue != nil {
		close(r.queue)
		<-r.done
	}
	err := r.file.Close()
	if r.err != nil {
		err = r.err
	}

	final := r.Final()
	summary := Summary{
		ID:       r.id,
		Tag:      r.tag,
		Mode:     r.mode,
		Started:  r.started,
		Finished: time.Now(),
		Args:     r.args,
		Final:    final,
	}
	out, yerr := yaml.Marshal(summary)
	if yerr != nil {
		return yerr
	}
	if werr := os.WriteFile(filepath.Join(r.dir, SummaryFile), out, 0o644); werr != nil {
		return werr
	}
	if perr := r.writeProm(final); perr != nil {
		return perr
	}
	return err
}

// MetricName maps a series name such as "test/disc_mean" to a Prometheus
// metric name.
func MetricName(name string) string {
	var b strings.Builder
	b.WriteString("kovae_")
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func ptr[T any](v T) *T {
	return &v
}

func (r *Run) writeProm(final map[string]float64) error {
	names := make([]string, 0, len(final))
	for k := range final {
		names = append(names, k)
	}
	sort.Strings(names)

	f, err := os.Create(filepath.Join(r.dir, PromFile))
	if err != nil {
		return err
	}
	defer f.Close()

	labels := []*dto.LabelPair{
		{Name: ptr("run"), Value: ptr(r.id)},
		{Name: ptr("tag"), Value: ptr(r.tag)},
	}
	for _, name := range names {
		mf := &dto.MetricFamily{
			Name: ptr(MetricName(name)),
			Help: ptr("final value of " + name),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: labels,
				Gauge: &dto.Gauge{Value: ptr(final[name])},
			}},
		}
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return errors.Wrapf(err, "tracking: exporting %s", name)
		}
	}
	return f.Close()
}
