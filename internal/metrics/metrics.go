package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_turns_total",
			Help: "Total conversation turns by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	DisambiguationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_disambiguations_total",
			Help: "Turns that ended in a disambiguation question",
		},
		[]string{"kind"},
	)

	ResolutionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_resolution_outcomes_total",
			Help: "Entity resolution outcomes by kind (none, single, ambiguous)",
		},
		[]string{"kind", "outcome"},
	)

	LLMLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "foreman_llm_latency_seconds",
			Help: "LLM completion latency in seconds",
		},
	)

	VoiceNotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_voice_notes_total",
			Help: "Voice notes received and transcribed",
		},
	)

	BriefsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_briefs_sent_total",
			Help: "Daily briefs generated and sent",
		},
	)

	RemindersSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_reminders_sent_total",
			Help: "Overdue-task reminders sent",
		},
	)
)
