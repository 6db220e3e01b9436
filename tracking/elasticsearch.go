package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
)

// Document is what is indexed for every run, param and metric.
type Document struct {
	RunID      string    `json:"run_id"`
	Experiment string    `json:"experiment,omitempty"`
	Kind       string    `json:"kind"`
	Key        string    `json:"key,omitempty"`
	Value      string    `json:"value,omitempty"`
	Metric     *float64  `json:"metric,omitempty"`
	Timestamp  time.Time `json:"@timestamp"`
}

// Elasticsearch indexes runs into an Elasticsearch index.
type Elasticsearch struct {
	client  *elastic.Client
	index   string
	Timeout time.Duration
}

// DefaultIndex is used when no experiment name is available to name the index.
const DefaultIndex = "taxifare"

// NewElasticsearch creates a tracker writing to the comma separated hosts. The index is named after the experiment.
func NewElasticsearch(hosts, experiment string) (*Elasticsearch, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(strings.Split(hosts, ",")...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating elasticsearch client")
	}
	return NewElasticsearchClient(client, indexName(experiment)), nil
}

// NewElasticsearchClient creates a tracker from an existing client.
func NewElasticsearchClient(client *elastic.Client, index string) *Elasticsearch {
	return &Elasticsearch{client: client, index: index, Timeout: 10 * time.Second}
}

// indexName lowercases an experiment name and replaces the characters Elasticsearch forbids in index names.
func indexName(experiment string) string {
	if len(experiment) == 0 {
		return DefaultIndex
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\\', '/', '*', '?', '"', '<', '>', '|', ',', '#', ':':
			return '_'
		}
		return r
	}, strings.ToLower(experiment))
}

func (e *Elasticsearch) put(doc Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	defer cancel()
	doc.Timestamp = time.Now()
	_, err := e.client.Index().
		Index(e.index).
		Id(uuid.New().String()).
		BodyJson(doc).
		Do(ctx)
	return errors.Wrapf(err, "indexing %s into %s", doc.Kind, e.index)
}

func (e *Elasticsearch) CreateRun(experiment string) (string, error) {
	id := uuid.New().String()
	if err := e.put(Document{RunID: id, Experiment: experiment, Kind: "run"}); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Elasticsearch) LogParam(runID, key, value string) error {
	return e.put(Document{RunID: runID, Kind: "param", Key: key, Value: value})
}

func (e *Elasticsearch) LogMetric(runID, key string, value float64) error {
	return e.put(Document{RunID: runID, Kind: "metric", Key: key, Value: formatFloat(value), Metric: &value})
}
