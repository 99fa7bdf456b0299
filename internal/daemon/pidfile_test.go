package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPIDFile_Write(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "nested", "imagedrop.pid")
	pf := NewPIDFile(pidPath)

	if err := pf.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	content, err := os.ReadFile(pidPath)
	if err != nil {
		t.Fatalf("failed to read PID file: %v", err)
	}
	if want := strconv.Itoa(os.Getpid()); string(content) != want {
		t.Errorf("content = %q, want %q", content, want)
	}

	info, err := os.Stat(pidPath)
	if err != nil {
		t.Fatalf("failed to stat PID file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o644 {
		t.Errorf("permissions = %o, want 644", perm)
	}

	entries, err := os.ReadDir(filepath.Dir(pidPath))
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the PID file", len(entries))
	}
}

func TestPIDFile_Write_Overwrite(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
	if err := os.WriteFile(pidPath, []byte("99999"), 0o644); err != nil {
		t.Fatalf("failed to seed PID file: %v", err)
	}

	pf := NewPIDFile(pidPath)
	if err := pf.Write(); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	pid, err := pf.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}
}

func TestPIDFile_Read(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{name: "plain", content: "12345", want: 12345},
		{name: "trailing newline", content: "12345\n", want: 12345},
		{name: "surrounding whitespace", content: "  \t12345 \n", want: 12345},
		{name: "large", content: "4194304", want: 4194304},
		{name: "empty", content: "", wantErr: true},
		{name: "whitespace only", content: " \n", wantErr: true},
		{name: "non numeric", content: "not-a-pid", wantErr: true},
		{name: "zero", content: "0", wantErr: true},
		{name: "negative", content: "-42", wantErr: true},
		{name: "overflow", content: "99999999999999999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
			if err := os.WriteFile(pidPath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("failed to seed PID file: %v", err)
			}

			got, err := NewPIDFile(pidPath).Read()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPIDFile_Read_NotExists(t *testing.T) {
	_, err := NewPIDFile(filepath.Join(t.TempDir(), "missing.pid")).Read()
	if err == nil {
		t.Fatal("Read() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Read() error = %v, want wrapped os.ErrNotExist", err)
	}
}

func TestPIDFile_Remove(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
	if err := os.WriteFile(pidPath, []byte("12345"), 0o644); err != nil {
		t.Fatalf("failed to seed PID file: %v", err)
	}

	pf := NewPIDFile(pidPath)
	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("Remove() left the file in place")
	}

	if err := pf.Remove(); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
}

func TestPIDFile_IsStale(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    bool
		wantErr bool
	}{
		{name: "missing file", content: nil, want: false},
		{name: "current process", content: ptr(strconv.Itoa(os.Getpid())), want: false},
		// PIDs above the kernel's pid_max cannot be live.
		{name: "dead process", content: ptr("4194305"), want: true},
		{name: "garbage", content: ptr("garbage"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
			if tt.content != nil {
				if err := os.WriteFile(pidPath, []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("failed to seed PID file: %v", err)
				}
			}

			got, err := NewPIDFile(pidPath).IsStale()
			if (err != nil) != tt.wantErr {
				t.Fatalf("IsStale() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPIDFile_CheckAndClaim(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		wantErr error
		anyErr  bool
	}{
		{name: "no existing file", content: nil},
		{name: "stale file", content: ptr("4194305")},
		{name: "active process", content: ptr(strconv.Itoa(os.Getppid())), wantErr: ErrAlreadyRunning},
		{name: "invalid content", content: ptr("garbage"), anyErr: true},
		{name: "negative pid", content: ptr("-1"), anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pidPath := filepath.Join(t.TempDir(), "imagedrop.pid")
			if tt.content != nil {
				if err := os.WriteFile(pidPath, []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("failed to seed PID file: %v", err)
				}
			}

			pf := NewPIDFile(pidPath)
			err := pf.CheckAndClaim()

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CheckAndClaim() error = %v, want %v", err, tt.wantErr)
				}
				return
			case tt.anyErr:
				if err == nil {
					t.Fatal("CheckAndClaim() expected error")
				}
				return
			case err != nil:
				t.Fatalf("CheckAndClaim() error = %v", err)
			}

			pid, err := pf.Read()
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if pid != os.Getpid() {
				t.Errorf("claimed PID = %d, want %d", pid, os.Getpid())
			}
		})
	}
}

func TestPIDFile_Path(t *testing.T) {
	if got := NewPIDFile("/run/imagedrop.pid").Path(); got != "/run/imagedrop.pid" {
		t.Errorf("Path() = %q", got)
	}
}

func ptr(s string) *string {
	return &s
}
