package speech

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// Transcriber transcribe notas de voz de WhatsApp con Google Cloud
// Speech. La configuración es fija: WhatsApp entrega OGG_OPUS a 16 kHz y
// los usuarios hablan español de Chile.
type Transcriber struct {
	mu     sync.Mutex
	client *speech.Client
}

func NewTranscriber() *Transcriber {
	return &Transcriber{}
}

// getClient crea el cliente la primera vez que se necesita, para que el
// proceso levante aunque no haya credenciales de GCP (ambiente local).
func (t *Transcriber) getClient(ctx context.Context) (*speech.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		return t.client, nil
	}
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creando cliente de speech: %w", err)
	}
	t.client = client
	return client, nil
}

// Transcribe hace una sola llamada best-effort, sin retry. Devuelve ""
// sin error cuando el reconocimiento no produjo resultados.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	client, err := t.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz: 16000,
			LanguageCode:    "es-CL",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("transcribiendo audio: %w", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		log.Printf("⚠️ Transcripción sin resultados (%d bytes de audio)", len(audio))
		return "", nil
	}

	transcript := strings.TrimSpace(resp.Results[0].Alternatives[0].Transcript)
	log.Printf("✅ Audio transcrito: %d caracteres", len(transcript))
	return transcript, nil
}

// Close libera el cliente gRPC si llegó a crearse.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
