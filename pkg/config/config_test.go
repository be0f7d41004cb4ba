package config

import "testing"

type sampleConfig struct {
	Endpoint string `split_words:"true" default:"http://localhost"`
	Retries  int    `split_words:"true" default:"2"`
}

func TestNewReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("SAMPLE_ENDPOINT", "https://api.example.com")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Endpoint != "https://api.example.com" {
		t.Fatalf("Endpoint = %q, want the value from the environment", conf.Endpoint)
	}
	if conf.Retries != 2 {
		t.Fatalf("Retries = %d, want the struct-tag default 2", conf.Retries)
	}
}

func TestMustNewPanicsOnBadValue(t *testing.T) {
	t.Setenv("SAMPLE_RETRIES", "not-a-number")

	defer func() {
		if recover() == nil {
			t.Fatal("MustNew must panic on an unparsable value")
		}
	}()
	MustNew[sampleConfig]("SAMPLE")
}
