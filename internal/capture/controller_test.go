package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rbright/agrivoice/internal/fsm"
	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/stretchr/testify/require"
)

func TestStartAndResultCommitsNormalizedValue(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	notifier := &fakeNotifier{}
	ctrl := NewController(nil, recognizer, binder, nil, notifier)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("nitrogen")))
	require.Equal(t, fsm.StateListening, ctrl.State())
	require.Equal(t, RecognizerConfig{Language: "en-US"}, recognizer.lastConfig())
	require.Equal(t, int32(1), notifier.listening.Load())

	recognizer.events().Result("five point two")
	recognizer.events().End()

	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, "5.2", binder.value("nitrogen"))
	require.Nil(t, ctrl.Status().Err)
	require.Equal(t, int32(1), notifier.completeCues.Load())
}

func TestTeluguDigitsAndWordsCommit(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	ctrl := NewController(nil, recognizer, binder, nil, nil, WithLanguage(i18n.Telugu))

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("ph")))
	require.Equal(t, "te-IN", recognizer.lastConfig().Language)

	recognizer.events().Result("౧ రెండు")
	require.Equal(t, "12", binder.value("ph"))
	require.Equal(t, fsm.StateIdle, ctrl.State())
}

func TestPermissionDeniedIsLocalizedInCurrentLanguage(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	notifier := &fakeNotifier{}
	ctrl := NewController(nil, recognizer, binder, nil, notifier, WithLanguage(i18n.Telugu))

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("nitrogen")))
	recognizer.events().Error("not-allowed")
	recognizer.events().End()

	status := ctrl.Status()
	require.Equal(t, fsm.StateIdle, status.State)
	require.ErrorIs(t, status.Err, ErrPermissionDenied)
	require.Equal(t, i18n.T(i18n.Telugu, i18n.KeyMicPermission), status.Message)
	require.Equal(t, []string{i18n.T(i18n.Telugu, i18n.KeyMicPermission)}, notifier.errorTexts())
	require.Empty(t, binder.values)
}

func TestUnrecognizedTranscriptDoesNotCommit(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	require.NoError(t, binder.Commit("rainfall", "200"))
	ctrl := NewController(nil, recognizer, binder, nil, nil)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("rainfall")))
	recognizer.events().Result("hello")

	status := ctrl.Status()
	require.Equal(t, fsm.StateIdle, status.State)
	require.ErrorIs(t, status.Err, ErrUnrecognizedNumber)
	require.Equal(t, "hello", status.Err.Transcript)
	require.Equal(t, `Could not convert "hello" to a valid number.`, status.Message)
	require.Equal(t, "200", binder.value("rainfall"))
}

func TestSecondStartIsRejectedWhileListening(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	ctrl := NewController(nil, recognizer, binder, nil, nil)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("nitrogen")))
	err := ctrl.Start(context.Background(), FieldTarget("potassium"))
	require.ErrorIs(t, err, ErrAlreadyListening)

	var captureErr *Error
	require.ErrorAs(t, err, &captureErr)
	require.Equal(t, FieldTarget("nitrogen"), captureErr.Target)

	require.Equal(t, int32(1), recognizer.starts.Load())
	status := ctrl.Status()
	require.Equal(t, fsm.StateListening, status.State)
	require.Equal(t, FieldTarget("nitrogen"), status.Session.Target)

	recognizer.events().Result("nine")
	require.Equal(t, "9", binder.value("nitrogen"))
	require.Empty(t, binder.value("potassium"))
}

func TestStartWithoutRecognizerIsUnsupported(t *testing.T) {
	notifier := &fakeNotifier{}
	ctrl := NewController(nil, nil, nil, nil, notifier)

	require.False(t, ctrl.Status().Supported)
	err := ctrl.Start(context.Background(), FieldTarget("ph"))
	require.ErrorIs(t, err, ErrUnsupported)
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, i18n.T(i18n.English, i18n.KeyMicNotSupported), ctrl.Status().Message)
	require.Len(t, notifier.errorTexts(), 1)
}

func TestStartFailureReturnsToIdle(t *testing.T) {
	recognizer := &fakeRecognizer{startErr: errors.New("device busy")}
	ctrl := NewController(nil, recognizer, nil, nil, nil)

	err := ctrl.Start(context.Background(), FieldTarget("ph"))
	require.ErrorIs(t, err, ErrStartFailed)
	require.Contains(t, err.Error(), "device busy")

	status := ctrl.Status()
	require.Equal(t, fsm.StateIdle, status.State)
	require.Nil(t, status.Session)
	require.Equal(t, i18n.T(i18n.English, i18n.KeyMicStart), status.Message)
}

func TestEndWithoutResultIsImplicitStop(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	notifier := &fakeNotifier{}
	ctrl := NewController(nil, recognizer, binder, nil, notifier)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("humidity")))
	recognizer.events().End()

	status := ctrl.Status()
	require.Equal(t, fsm.StateIdle, status.State)
	require.Nil(t, status.Err)
	require.Empty(t, binder.values)
	require.Equal(t, int32(1), notifier.hides.Load())
}

func TestStaleEventsAreIgnored(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := newFakeBinder()
	ctrl := NewController(nil, recognizer, binder, nil, nil)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("nitrogen")))
	first := recognizer.events()
	require.True(t, ctrl.Stop(context.Background()))

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("potassium")))
	second := recognizer.events()

	first.Result("seven")
	first.Error("network")
	first.End()
	require.Equal(t, fsm.StateListening, ctrl.State())
	require.Nil(t, ctrl.Status().Err)
	require.Empty(t, binder.value("nitrogen"))

	second.Result("three")
	second.End()
	second.Error("network")
	require.Equal(t, "3", binder.value("potassium"))
	require.Nil(t, ctrl.Status().Err)
	require.Equal(t, fsm.StateIdle, ctrl.State())
}

func TestStopIsExplicitCancel(t *testing.T) {
	recognizer := &fakeRecognizer{}
	notifier := &fakeNotifier{}
	ctrl := NewController(nil, recognizer, nil, nil, notifier)

	require.False(t, ctrl.Stop(context.Background()))
	require.Equal(t, int32(0), recognizer.stops.Load())

	require.NoError(t, ctrl.Start(context.Background(), ChatTarget()))
	require.True(t, ctrl.Stop(context.Background()))
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, int32(1), recognizer.stops.Load())
	require.Equal(t, int32(1), notifier.stopCues.Load())
	require.Nil(t, ctrl.Status().Err)
}

func TestToggleStopsSameTargetAndRejectsOthers(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, nil, nil, nil)

	started, err := ctrl.Toggle(context.Background(), FieldTarget("ph"))
	require.NoError(t, err)
	require.True(t, started)

	started, err = ctrl.Toggle(context.Background(), FieldTarget("rainfall"))
	require.ErrorIs(t, err, ErrAlreadyListening)
	require.False(t, started)
	require.Equal(t, fsm.StateListening, ctrl.State())

	started, err = ctrl.Toggle(context.Background(), FieldTarget("ph"))
	require.NoError(t, err)
	require.False(t, started)
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, int32(1), recognizer.stops.Load())
}

func TestSetLanguageStopsActiveSessionAndClearsError(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, nil, nil, nil)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("ph")))
	recognizer.events().Error("no-speech")
	require.ErrorIs(t, ctrl.Status().Err, ErrNoSpeech)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("ph")))
	require.NoError(t, ctrl.SetLanguage(context.Background(), i18n.Telugu))
	require.Equal(t, fsm.StateIdle, ctrl.State())
	require.Equal(t, int32(1), recognizer.stops.Load())
	require.Nil(t, ctrl.Status().Err)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("ph")))
	require.Equal(t, "te-IN", recognizer.lastConfig().Language)

	require.Error(t, ctrl.SetLanguage(context.Background(), i18n.Language("fr")))
}

func TestChatTargetDeliversTrimmedTranscript(t *testing.T) {
	recognizer := &fakeRecognizer{}
	var got []string
	chat := CommitFunc(func(_ context.Context, text string) error {
		got = append(got, text)
		return nil
	})
	ctrl := NewController(nil, recognizer, nil, chat, nil)

	require.NoError(t, ctrl.Start(context.Background(), ChatTarget()))
	recognizer.events().Result("  how much urea for rice  ")
	require.Equal(t, []string{"how much urea for rice"}, got)
	require.Equal(t, fsm.StateIdle, ctrl.State())

	require.NoError(t, ctrl.Start(context.Background(), ChatTarget()))
	recognizer.events().Result("   ")
	require.Len(t, got, 1)
	require.ErrorIs(t, ctrl.Status().Err, ErrNoSpeech)
}

func TestBinderFailureIsReported(t *testing.T) {
	recognizer := &fakeRecognizer{}
	binder := BindFunc(func(field string, _ string) error {
		return errors.New("unknown field " + field)
	})
	ctrl := NewController(nil, recognizer, binder, nil, nil)

	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("bogus")))
	recognizer.events().Result("five")

	status := ctrl.Status()
	require.ErrorIs(t, status.Err, ErrUnknown)
	require.Contains(t, status.Message, "commit")
	require.Equal(t, fsm.StateIdle, status.State)
}

func TestStartValidatesTarget(t *testing.T) {
	ctrl := NewController(nil, &fakeRecognizer{}, nil, nil, nil)

	require.Error(t, ctrl.Start(context.Background(), FieldTarget(" ")))
	require.Error(t, ctrl.Start(context.Background(), Target{Kind: "elsewhere"}))
	require.Equal(t, fsm.StateIdle, ctrl.State())
}

func TestConcurrentStartsAdmitOneListener(t *testing.T) {
	recognizer := &fakeRecognizer{}
	ctrl := NewController(nil, recognizer, nil, nil, nil)

	var wg sync.WaitGroup
	var admitted atomic.Int32
	for _, field := range []string{"nitrogen", "phosphorus", "potassium", "temperature", "humidity", "ph", "rainfall"} {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			if err := ctrl.Start(context.Background(), FieldTarget(field)); err == nil {
				admitted.Add(1)
			}
		}(field)
	}
	wg.Wait()

	require.Equal(t, int32(1), admitted.Load())
	require.Equal(t, int32(1), recognizer.starts.Load())
	require.Equal(t, fsm.StateListening, ctrl.State())
}

func TestStopDuringSlowStartKeepsNewStartsOut(t *testing.T) {
	recognizer := &fakeRecognizer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	binder := newFakeBinder()
	ctrl := NewController(nil, recognizer, binder, nil, nil)

	firstDone := make(chan error, 1)
	go func() { firstDone <- ctrl.Start(context.Background(), FieldTarget("nitrogen")) }()
	<-recognizer.entered

	require.True(t, ctrl.Stop(context.Background()))
	require.Equal(t, fsm.StateIdle, ctrl.State())

	err := ctrl.Start(context.Background(), FieldTarget("ph"))
	require.ErrorIs(t, err, ErrAlreadyListening)
	var captureErr *Error
	require.ErrorAs(t, err, &captureErr)
	require.Equal(t, FieldTarget("nitrogen"), captureErr.Target)

	close(recognizer.release)
	require.NoError(t, <-firstDone)
	require.Equal(t, int32(1), recognizer.maxInflight.Load())
	// One stop from Stop, one releasing the stream that finished connecting.
	require.Equal(t, int32(2), recognizer.stops.Load())
	require.Equal(t, fsm.StateIdle, ctrl.State())

	recognizer.entered = nil
	require.NoError(t, ctrl.Start(context.Background(), FieldTarget("ph")))
	recognizer.events().Result("seven")
	require.Equal(t, "7", binder.value("ph"))
	require.Empty(t, binder.value("nitrogen"))
}

type fakeRecognizer struct {
	startErr error
	// entered and release, when set, hold Start open until release closes.
	entered chan struct{}
	release chan struct{}

	inflight    atomic.Int32
	maxInflight atomic.Int32

	starts atomic.Int32
	stops  atomic.Int32

	mu      sync.Mutex
	configs []RecognizerConfig
	sinks   []Events
}

func (f *fakeRecognizer) Start(_ context.Context, cfg RecognizerConfig, events Events) error {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.maxInflight.Load()
		if n <= peak || f.maxInflight.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.startErr != nil {
		return f.startErr
	}
	f.starts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	f.sinks = append(f.sinks, events)
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.stops.Add(1)
	return nil
}

func (f *fakeRecognizer) events() Events {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinks[len(f.sinks)-1]
}

func (f *fakeRecognizer) lastConfig() RecognizerConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[len(f.configs)-1]
}

type fakeBinder struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{values: map[string]string{}}
}

func (f *fakeBinder) Commit(field string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
	return nil
}

func (f *fakeBinder) value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[field]
}

type fakeNotifier struct {
	listening    atomic.Int32
	stopCues     atomic.Int32
	completeCues atomic.Int32
	hides        atomic.Int32

	mu     sync.Mutex
	errors []string
}

func (f *fakeNotifier) ShowListening(context.Context, string) { f.listening.Add(1) }
func (f *fakeNotifier) CueStop(context.Context)               { f.stopCues.Add(1) }
func (f *fakeNotifier) CueComplete(context.Context)           { f.completeCues.Add(1) }
func (f *fakeNotifier) Hide(context.Context)                  { f.hides.Add(1) }

func (f *fakeNotifier) ShowError(_ context.Context, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, text)
}

func (f *fakeNotifier) errorTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.errors...)
}
