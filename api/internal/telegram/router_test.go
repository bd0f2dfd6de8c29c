package telegram

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"deepfake-bot/api/internal/effects"
	"deepfake-bot/api/internal/predict"
	"deepfake-bot/api/internal/render"
	"deepfake-bot/api/internal/verdict"
)

type fakeBot struct {
	mu      sync.Mutex
	nextID  int
	sent    []string // тексты NewMessage
	edits   []string // тексты EditMessageText
	deletes int
	fileErr error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		b.sent = append(b.sent, m.Text)
	case tgbotapi.EditMessageTextConfig:
		b.edits = append(b.edits, m.Text)
		return tgbotapi.Message{MessageID: m.MessageID}, nil
	}
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
		b.deletes++
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if b.fileErr != nil {
		return "", b.fileErr
	}
	return "https://files.test/" + fileID, nil
}

func (b *fakeBot) snapshot() (sent, edits []string, deletes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...), append([]string(nil), b.edits...), b.deletes
}

type fakePredictor struct {
	mu    sync.Mutex
	calls []predict.Upload
	res   verdict.Result
	err   error
	block chan struct{}
}

func (p *fakePredictor) Predict(ctx context.Context, up predict.Upload) (verdict.Result, error) {
	body, _ := io.ReadAll(up.Body)
	p.mu.Lock()
	up.Body = strings.NewReader(string(body))
	p.calls = append(p.calls, up)
	block := p.block
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return p.res, p.err
}

func (p *fakePredictor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newTestRouter(bot *fakeBot, p *fakePredictor) *Router {
	r := NewRouter(bot, p)
	r.EffectDuration = 30 * time.Millisecond
	r.Fetch = func(ctx context.Context, url string, limit int64) ([]byte, error) {
		return []byte("bytes of " + url), nil
	}
	return r
}

func msgUpdate(m *tgbotapi.Message) tgbotapi.Update {
	if m.Chat == nil {
		m.Chat = &tgbotapi.Chat{ID: 42}
	}
	return tgbotapi.Update{Message: m}
}

func TestHandleUpdate_NoFileNeverCallsPredictor(t *testing.T) {
	bot, p := &fakeBot{}, &fakePredictor{}
	r := newTestRouter(bot, p)

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 1, Text: "is this fake?"}))

	if p.callCount() != 0 {
		t.Fatalf("predictor called %d times without a file", p.callCount())
	}
	sent, _, _ := bot.snapshot()
	if len(sent) != 1 || sent[0] != render.NoFileMessage {
		t.Errorf("sent = %q", sent)
	}
}

func TestHandleUpdate_PhotoRealVerdict(t *testing.T) {
	bot := &fakeBot{}
	p := &fakePredictor{res: verdict.Result{FileType: verdict.FileImage, Label: verdict.LabelReal, Confidence: 0.9731}}
	r := newTestRouter(bot, p)

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{
		MessageID: 5,
		Photo:     []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}))

	if p.callCount() != 1 {
		t.Fatalf("predictor calls = %d", p.callCount())
	}
	up := p.calls[0]
	if up.Filename != "photo.jpg" || up.ContentType != "image/jpeg" {
		t.Errorf("upload = %+v", up)
	}
	if b, _ := io.ReadAll(up.Body); string(b) != "bytes of https://files.test/large" {
		t.Errorf("uploaded %q, want the largest photo", b)
	}

	sent, edits, _ := bot.snapshot()
	if len(sent) != 1 || !strings.Contains(sent[0], render.PendingMessage) {
		t.Errorf("pending message = %q", sent)
	}
	if len(edits) != 1 {
		t.Fatalf("edits = %q", edits)
	}
	for _, want := range []string{"🟢", "*File Type:* Image", "*Prediction:* Real", "*Confidence:* 97.31%"} {
		if !strings.Contains(edits[0], want) {
			t.Errorf("verdict %q missing %q", edits[0], want)
		}
	}
}

func TestHandleUpdate_FakeStartsSnowfallThatCleansUp(t *testing.T) {
	bot := &fakeBot{}
	p := &fakePredictor{res: verdict.Result{FileType: verdict.FileVideo, Label: verdict.LabelFake, Confidence: 0.7}}
	r := newTestRouter(bot, p)
	r.EffectDuration = time.Minute

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 9, Video: &tgbotapi.Video{FileID: "v1", FileName: "clip.mov", MimeType: "video/quicktime"}}))

	_, edits, _ := bot.snapshot()
	if len(edits) == 0 || !strings.Contains(edits[0], "*Prediction:* Fake") {
		t.Fatalf("verdict not rendered before the effect: %q", edits)
	}
	if p.calls[0].Filename != "clip.mov" || p.calls[0].ContentType != "video/quicktime" {
		t.Errorf("upload = %+v", p.calls[0])
	}

	stopped := make(chan struct{})
	go func() {
		r.StopEffects()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("StopEffects did not return")
	}

	sent, _, deletes := bot.snapshot()
	if deletes != 1 {
		t.Errorf("snowfall message deletes = %d, want 1", deletes)
	}
	if len(sent) < 2 || !strings.HasPrefix(sent[1], "```") {
		t.Errorf("snowfall frame not sent: %q", sent)
	}
}

func TestHandleUpdate_SnowfallEndsOnItsOwn(t *testing.T) {
	bot := &fakeBot{}
	p := &fakePredictor{res: verdict.Result{FileType: verdict.FileImage, Label: verdict.LabelFake, Confidence: 0.9}}
	r := newTestRouter(bot, p)
	r.EffectDuration = 300 * time.Millisecond

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 3, Photo: []tgbotapi.PhotoSize{{FileID: "p"}}}))

	var e *effects.Effect
	r.running.Range(func(k, _ any) bool {
		e = k.(*effects.Effect)
		return false
	})
	if e == nil {
		t.Fatal("no snowfall running after a fake verdict")
	}
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("snowfall outlived its duration")
	}
	if _, _, deletes := bot.snapshot(); deletes != 1 {
		t.Errorf("snowfall message deletes = %d, want 1", deletes)
	}
}

func TestHandleUpdate_ErrorRendered(t *testing.T) {
	bot := &fakeBot{}
	p := &fakePredictor{err: &verdict.UnsupportedFileTypeError{FileType: "text"}}
	r := newTestRouter(bot, p)

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 2, Document: &tgbotapi.Document{FileID: "d", FileName: "notes.txt"}}))

	_, edits, _ := bot.snapshot()
	if len(edits) != 1 || !strings.Contains(edits[0], "🚫 Error: Unsupported file\\_type: text") {
		t.Errorf("edits = %q", edits)
	}
}

func TestHandleUpdate_GetFileErrorRendered(t *testing.T) {
	bot := &fakeBot{fileErr: errors.New("file is too big")}
	p := &fakePredictor{}
	r := newTestRouter(bot, p)

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 2, Voice: &tgbotapi.Voice{FileID: "x"}}))

	if p.callCount() != 0 {
		t.Error("predictor called although the file could not be fetched")
	}
	_, edits, _ := bot.snapshot()
	if len(edits) != 1 || !strings.Contains(edits[0], "file is too big") {
		t.Errorf("edits = %q", edits)
	}
}

func TestHandleUpdate_OverlappingSubmissionRefused(t *testing.T) {
	bot := &fakeBot{}
	p := &fakePredictor{
		res:   verdict.Result{FileType: verdict.FileAudio, Label: verdict.LabelReal, Confidence: 0.5},
		block: make(chan struct{}),
	}
	r := newTestRouter(bot, p)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 1, Audio: &tgbotapi.Audio{FileID: "a1"}}))
	}()
	for p.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	r.HandleUpdate(msgUpdate(&tgbotapi.Message{MessageID: 2, Audio: &tgbotapi.Audio{FileID: "a2"}}))
	close(p.block)
	<-done

	if p.callCount() != 1 {
		t.Errorf("predictor calls = %d, want 1", p.callCount())
	}
	sent, _, _ := bot.snapshot()
	var sawBusy bool
	for _, s := range sent {
		sawBusy = sawBusy || s == busyText
	}
	if !sawBusy {
		t.Errorf("busy message not sent: %q", sent)
	}
}

func TestHandleCommand(t *testing.T) {
	bot, p := &fakeBot{}, &fakePredictor{}
	r := newTestRouter(bot, p)
	r.HandleUpdate(msgUpdate(&tgbotapi.Message{
		Text:     "/health",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}},
	}))
	sent, _, _ := bot.snapshot()
	if len(sent) != 1 || sent[0] != "✅ OK" {
		t.Errorf("sent = %q", sent)
	}
	if p.callCount() != 0 {
		t.Error("command triggered a prediction")
	}
}

func TestPickMedia(t *testing.T) {
	cases := []struct {
		msg  *tgbotapi.Message
		name string
		mime string
	}{
		{&tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "v"}}, "voice.ogg", "audio/ogg"},
		{&tgbotapi.Message{VideoNote: &tgbotapi.VideoNote{FileID: "n"}}, "video_note.mp4", "video/mp4"},
		{&tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "a", FileName: "song.flac"}}, "song.flac", ""},
		{&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d", MimeType: "image/png"}}, "file", "image/png"},
	}
	for _, tc := range cases {
		m, ok := pickMedia(tc.msg)
		if !ok || m.Filename != tc.name || m.MIME != tc.mime {
			t.Errorf("pickMedia = %+v, %v; want %s %s", m, ok, tc.name, tc.mime)
		}
	}
	if _, ok := pickMedia(&tgbotapi.Message{Text: "hi"}); ok {
		t.Error("text message reported as media")
	}
}
