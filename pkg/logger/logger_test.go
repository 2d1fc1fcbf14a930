package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/pkg/logger"
)

// Fuera de development la salida es JSON y cada evento lleva el campo
// service: es el stream que consume el lector de notificaciones.
func TestNew_EstampaServiceEnJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{
		Env:     "production",
		Level:   "info",
		Service: "activos-api",
		Output:  &buf,
	})

	log.Info().Str("event", "task_completed").Msg("tarea completada")

	var evt map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &evt))
	assert.Equal(t, "activos-api", evt["service"])
	assert.Equal(t, "task_completed", evt["event"])
}

// Un nivel desconocido o vacío cae a info: debug se descarta, warn pasa.
func TestNew_NivelPorDefectoEsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "cualquiera", Output: &buf})

	log.Debug().Msg("no debe emitirse")
	assert.Zero(t, buf.Len(), "debug queda bajo el nivel info")

	log.Warn().Msg("sí debe emitirse")
	assert.NotZero(t, buf.Len())
}
