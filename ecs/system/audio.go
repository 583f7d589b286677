package system

import (
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"go.uber.org/zap"
)

// SoundSink plays a resolved sound file.
type SoundSink interface {
	Play(file string)
}

// LogSink is a SoundSink that only logs. Headless runs use it.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Play(file string) {
	if s.Logger != nil {
		s.Logger.Debug("sound", zap.String("file", file))
	}
}

type AudioSystem struct {
	sink SoundSink
}

func NewAudioSystem(sink SoundSink) *AudioSystem {
	return &AudioSystem{sink: sink}
}

func (a *AudioSystem) Update(w *ecs.World, _ float64) {
	ecs.ForEach(w, component.SoundQueueComponent.Kind(), func(_ ecs.Entity, q *component.SoundQueue) {
		for _, name := range q.Pending {
			file := name
			if f, ok := q.Files[name]; ok && f != "" {
				file = f
			}
			if a.sink != nil {
				a.sink.Play(file)
			}
		}
		q.Pending = q.Pending[:0]
	})
}
