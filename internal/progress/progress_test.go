// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/article-engine/pkg/types"
)

func TestEmit_NilObserver(t *testing.T) {
	assert.NotPanics(t, func() { Emit(nil, types.ProgressEvent{Phase: types.PhaseResearch}) })
}

func TestJoin(t *testing.T) {
	assert.Nil(t, Join(nil, nil))

	r := &Recorder{}
	assert.Same(t, r, Join(nil, r))

	a, b := &Recorder{}, &Recorder{}
	o := Join(a, nil, b)
	o.Observe(types.ProgressEvent{Phase: types.PhaseWriting})
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	r.Observe(types.ProgressEvent{Phase: types.PhaseResearch})
	r.Observe(types.ProgressEvent{Phase: types.PhasePlanning})

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, types.PhasePlanning, last.Phase)
	assert.Equal(t, []types.Phase{types.PhaseResearch, types.PhasePlanning}, r.Phases())
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	o := Log(zap.New(core))

	o.Observe(types.ProgressEvent{Phase: types.PhaseWriting, Section: "Intro", Current: 1, Total: 3})
	o.Observe(types.ProgressEvent{Phase: types.PhaseFailed, Err: "boom"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "pipeline progress", entries[0].Message)
	assert.Equal(t, "Intro", entries[0].ContextMap()["section"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestKafkaPublisher_PublishesKeyedMessages(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)

	var got []Message
	check := func(val []byte) error {
		var m Message
		if err := json.Unmarshal(val, &m); err != nil {
			return err
		}
		got = append(got, m)
		return nil
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(check)

	k := NewKafkaPublisherFromProducer(producer, "", nil)
	o := k.ForRun("run-1", "Quantum Computing")
	o.Observe(types.ProgressEvent{Phase: types.PhaseResearch})
	o.Observe(types.ProgressEvent{Phase: types.PhaseComplete})
	require.NoError(t, k.Close())

	require.Len(t, got, 2)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, "Quantum Computing", got[0].Topic)
	assert.Equal(t, types.PhaseResearch, got[0].Event.Phase)
	assert.Equal(t, types.PhaseComplete, got[1].Event.Phase)
}

func TestKafkaPublisher_FailureIsLoggedNotRaised(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	core, logs := observer.New(zap.WarnLevel)
	k := NewKafkaPublisherFromProducer(producer, "events", zap.New(core))

	assert.NotPanics(t, func() {
		k.ForRun("r", "t").Observe(types.ProgressEvent{Phase: types.PhaseSaving})
	})
	require.NoError(t, k.Close())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "publishing progress event", logs.All()[0].Message)
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(types.KafkaConfig{}, nil)
	assert.ErrorContains(t, err, "no brokers")
}
