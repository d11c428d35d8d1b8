//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("WAVE_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "WAVE_TEST_BIN not set; build the binary and point WAVE_TEST_BIN at it")
		os.Exit(1)
	}

	dir, err := os.MkdirTemp("", "whisperwave-it")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	toneWAV = filepath.Join(dir, "tone.wav")
	if err := writeToneWAV(toneWAV, 16000, 1.0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

var toneWAV string

func writeToneWAV(path string, sampleRate int, durationS float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i := 0; i < numSamples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*300*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(v))
	}

	return os.WriteFile(path, buf, 0644)
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runWave(t *testing.T, stdin string, args ...string) (out, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-nobeep"}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Dir = t.TempDir() // no stray .env
	cmd.Env = append(os.Environ(), "WAVE_CONFIG=")

	b, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("whisperwave exited with error: %v\noutput: %s", err, b)
	}
	return string(b), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestFakeProviderTranscript(t *testing.T) {
	out, logDir := runWave(t, cmds("START", "SLEEP 300", "STOP", "WAIT", "LIST", "QUIT"),
		"-provider", "fake", "-test", toneWAV)
	if !strings.Contains(out, "0\tready\tfake transcription") {
		t.Fatalf("missing ready entry:\n%s", out)
	}
	if !strings.Contains(readLog(t, logDir, "transcribe_log.txt"), "fake transcription") {
		t.Error("transcribe_log.txt has no transcript")
	}
	diag := readLog(t, logDir, "diagnostics_log.txt")
	for _, want := range []string{"session_start", "model_loaded", "recording_finished", "status=ready", "session_end"} {
		if !strings.Contains(diag, want) {
			t.Errorf("diagnostics missing %s", want)
		}
	}
}

func TestWavFormat(t *testing.T) {
	_, logDir := runWave(t, cmds("START", "SLEEP 200", "STOP", "WAIT", "QUIT"),
		"-provider", "fake", "-format", "wav", "-test", toneWAV)
	if diag := readLog(t, logDir, "diagnostics_log.txt"); !strings.Contains(diag, "audio/wav") {
		t.Error("expected audio/wav recording in diagnostics")
	}
}

func TestDeleteWhilePending(t *testing.T) {
	out, _ := runWave(t, cmds("START", "SLEEP 200", "STOP", "DELETE 0", "WAIT", "LIST", "QUIT"),
		"-provider", "fake", "-test", toneWAV)
	list := out[strings.LastIndex(out, "deleted "):]
	if strings.Contains(list, "\tready\t") || strings.Contains(list, "\tpending\t") {
		t.Fatalf("deleted entry reappeared:\n%s", out)
	}
}

func TestWaitAudioDone(t *testing.T) {
	out, _ := runWave(t, cmds("START", "WAIT_AUDIO_DONE", "STOP", "WAIT", "LIST", "QUIT"),
		"-provider", "fake", "-test", toneWAV)
	if !strings.Contains(out, "frames=true") {
		t.Errorf("no spectrum frames during a full replay:\n%s", out)
	}
}

func TestGroqWords(t *testing.T) {
	if os.Getenv("GROQ_API_KEY") == "" {
		t.Skip("GROQ_API_KEY not set")
	}
	out, _ := runWave(t, cmds("START", "WAIT_AUDIO_DONE", "STOP", "WAIT", "LIST", "QUIT"),
		"-provider", "groq", "-test", toneWAV)
	if !strings.Contains(out, "end") {
		t.Fatalf("LIST produced no output:\n%s", out)
	}
}
