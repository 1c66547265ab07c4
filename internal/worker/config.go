package worker

type Config struct {
	NumWorkers int `envconfig:"NUM_WORKERS" default:"16"`
}
