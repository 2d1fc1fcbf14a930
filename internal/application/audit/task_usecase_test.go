package audit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados de tareas: pending → in_progress → completed,
// cancelled terminal desde pending/in_progress.
// ──────────────────────────────────────────────────────────────────────────────

func setTaskStatus(t *testing.T, w *world, status string) {
	t.Helper()
	task, _ := w.tasks.GetByID(context.Background(), testTaskID)
	task.Status = status
	require.NoError(t, w.tasks.Update(context.Background(), task))
}

func TestTaskStart_PendingPasaAInProgress(t *testing.T) {
	w := newWorld()
	setTaskStatus(t, w, entity.TaskStatusPending)

	task, err := w.taskUC().Start(context.Background(), workerInput(testTaskID))
	require.NoError(t, err)

	assert.Equal(t, entity.TaskStatusInProgress, task.Status)
	assert.NotNil(t, task.StartedAt)
}

// Start desde cualquier estado distinto de pending es transición inválida.
func TestTaskStart_DesdeEstadoInvalidoRechaza(t *testing.T) {
	for _, status := range []string{
		entity.TaskStatusInProgress,
		entity.TaskStatusCompleted,
		entity.TaskStatusCancelled,
	} {
		w := newWorld()
		setTaskStatus(t, w, status)
		_, err := w.taskUC().Start(context.Background(), workerInput(testTaskID))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "start desde %s debe rechazarse", status)
	}
}

// Completar estampa completed_at y notifica al creador de la sesión cuando el
// actor es otro usuario.
func TestTaskComplete_NotificaAlCreador(t *testing.T) {
	w := newWorld()
	uc := w.taskUC()

	task, err := uc.Complete(context.Background(), workerInput(testTaskID))
	require.NoError(t, err)

	assert.Equal(t, entity.TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)
	require.Len(t, w.notifier.calls, 1, "debe emitirse una notificación")
	assert.Equal(t, testTaskID+"→"+testWorkerID, w.notifier.calls[0])
}

// Si el actor es el mismo creador de la sesión no se notifica a sí mismo.
func TestTaskComplete_CreadorNoSeAutoNotifica(t *testing.T) {
	w := newWorld()
	_, err := w.taskUC().Complete(context.Background(), managerInput(testTaskID))
	require.NoError(t, err)
	assert.Empty(t, w.notifier.calls)
}

// Completar la tarea NO transiciona los expected restantes a missing: esa
// detección pertenece al cierre de la sesión completa.
func TestTaskComplete_NoMarcaMissing(t *testing.T) {
	w := newWorld()
	_, err := w.taskUC().Complete(context.Background(), workerInput(testTaskID))
	require.NoError(t, err)

	for _, id := range []string{"item-asset-1", "item-asset-2", "item-asset-3"} {
		assert.Equal(t, entity.ItemStatusExpected, w.item(id).Status,
			"los esperados no escaneados siguen expected al completar la tarea")
	}
	assert.Zero(t, w.session(testSessionID).TotalMissing)
}

func TestTaskComplete_DesdePendingRechaza(t *testing.T) {
	w := newWorld()
	setTaskStatus(t, w, entity.TaskStatusPending)
	_, err := w.taskUC().Complete(context.Background(), workerInput(testTaskID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// Cancelar requiere rol manager o superior.
func TestTaskCancel_RequiereManager(t *testing.T) {
	w := newWorld()
	_, err := w.taskUC().Cancel(context.Background(), workerInput(testTaskID))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	task, err := w.taskUC().Cancel(context.Background(), managerInput(testTaskID))
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusCancelled, task.Status)
}

func TestTaskCancel_CompletadaRechaza(t *testing.T) {
	w := newWorld()
	setTaskStatus(t, w, entity.TaskStatusCompleted)
	_, err := w.taskUC().Cancel(context.Background(), managerInput(testTaskID))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Bundle offline
// ──────────────────────────────────────────────────────────────────────────────

// El bundle trae la tarea, su sesión, los ítems del alcance, los activos
// involucrados y el índice de códigos de TODA la organización (para resolver
// candidatos a unexpected sin red).
func TestTaskDownload_BundleCompleto(t *testing.T) {
	w := newWorld()
	bundle, err := w.taskUC().Download(context.Background(), workerInput(testTaskID))
	require.NoError(t, err)

	assert.Equal(t, testTaskID, bundle.Task.ID)
	assert.Equal(t, testSessionID, bundle.Session.ID)
	assert.Len(t, bundle.Items, 3)
	assert.Len(t, bundle.Assets, 3, "solo los activos con ítem en el alcance")
	assert.Len(t, bundle.AllAssetBarcodes, 4,
		"el índice de códigos cubre toda la organización, incluidos los fuera de alcance")
}

func TestTaskDownload_NoAsignadoRechaza(t *testing.T) {
	w := newWorld()
	in := workerInput(testTaskID)
	in.UserID = testOtherUser
	_, err := w.taskUC().Download(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución de asignatarios
// ──────────────────────────────────────────────────────────────────────────────

func TestAssigneeName_ResuelvePorKind(t *testing.T) {
	w := newWorld()
	name, err := w.taskUC().AssigneeName(context.Background(), entity.AssigneeRef{
		Kind: entity.AssigneeKindUser, ID: testWorkerID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Trabajador Uno", name)

	_, err = w.taskUC().AssigneeName(context.Background(), entity.AssigneeRef{
		Kind: entity.AssigneeKindDepartment, ID: "dep-x",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Las tareas asignadas a un departamento o ubicación las puede operar
// cualquier usuario de la organización (la membresía la valida el directorio
// externo al emitir el token).
func TestTask_AsignatarioColectivoOperaCualquiera(t *testing.T) {
	w := newWorld()
	task, _ := w.tasks.GetByID(context.Background(), testTaskID)
	task.Assignee = entity.AssigneeRef{Kind: entity.AssigneeKindDepartment, ID: "dep-1"}
	require.NoError(t, w.tasks.Update(context.Background(), task))

	in := workerInput(testTaskID)
	in.UserID = testOtherUser
	_, _, err := w.taskUC().Get(context.Background(), in)
	assert.NoError(t, err)
}
