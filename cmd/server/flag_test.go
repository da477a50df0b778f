package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestNewMainFlags(t *testing.T) {
	newMainFlagsTests := []struct {
		osArgs    []string
		envVars   map[string]string
		want      mainFlags
		httpPort  bool // httpPort is specified
		httpsPort bool // httpsPort is specified
		poll      bool // pollPeriodMs is specified
	}{
		{},
		{
			osArgs: []string{"", "https-port=8001"},
		},
		{
			osArgs:    []string{"", "-https-port=8001"},
			want:      mainFlags{httpsPort: 8001},
			httpsPort: true,
		},
		{
			osArgs:    []string{"", "--https-port=8001"},
			want:      mainFlags{httpsPort: 8001},
			httpsPort: true,
		},
		{
			envVars:   map[string]string{"HTTPS_PORT": "8002"},
			want:      mainFlags{httpsPort: 8002},
			httpsPort: true,
		},
		{
			osArgs:    []string{"", "-https-port=8003"},
			envVars:   map[string]string{"HTTPS_PORT": "8004"},
			want:      mainFlags{httpsPort: 8003},
			httpsPort: true,
		},
		{
			envVars: map[string]string{"HTTPS_PORT": "eighty"},
		},
		{
			osArgs:    []string{"", "-http-port=8005", "-port=8006"},
			want:      mainFlags{httpPort: -1, httpsPort: 8006},
			httpPort:  true,
			httpsPort: true,
		},
		{
			envVars:   map[string]string{"PORT": "8007"},
			want:      mainFlags{httpPort: -1, httpsPort: 8007},
			httpPort:  true,
			httpsPort: true,
		},
		{
			osArgs: []string{"", "-debug-game"},
			want:   mainFlags{debugGame: true},
		},
		{
			envVars: map[string]string{"DEBUG_GAME": ""},
			want:    mainFlags{debugGame: true},
		},
		{
			osArgs: []string{"", "-hash-password=s3cr3t"},
			want:   mainFlags{hashPassword: "s3cr3t"},
		},
		{ // all command line
			osArgs: []string{
				"",
				"-http-port=1",
				"-https-port=2",
				"-data-source=3",
				"-acme-challenge-token=4",
				"-acme-challenge-key=5",
				"-tls-cert-file=6",
				"-tls-key-file=7",
				"-monitor-password-hash=8",
				"-poll-period-ms=9",
				"-debug-game",
				"-no-tls-redirect",
				"-require-token",
			},
			want: mainFlags{
				httpPort:            1,
				httpsPort:           2,
				databaseURL:         "3",
				challengeToken:      "4",
				challengeKey:        "5",
				tlsCertFile:         "6",
				tlsKeyFile:          "7",
				monitorPasswordHash: "8",
				pollPeriodMs:        9,
				debugGame:           true,
				noTLSRedirect:       true,
				requireToken:        true,
			},
			httpPort:  true,
			httpsPort: true,
			poll:      true,
		},
		{ // all environment variables
			envVars: map[string]string{
				"HTTP_PORT":             "1",
				"HTTPS_PORT":            "2",
				"DATABASE_URL":          "3",
				"ACME_CHALLENGE_TOKEN":  "4",
				"ACME_CHALLENGE_KEY":    "5",
				"TLS_CERT_FILE":         "6",
				"TLS_KEY_FILE":          "7",
				"MONITOR_PASSWORD_HASH": "8",
				"POLL_PERIOD_MS":        "9",
				"DEBUG_GAME":            "",
				"NO_TLS_REDIRECT":       "",
				"REQUIRE_TOKEN":         "",
			},
			want: mainFlags{
				httpPort:            1,
				httpsPort:           2,
				databaseURL:         "3",
				challengeToken:      "4",
				challengeKey:        "5",
				tlsCertFile:         "6",
				tlsKeyFile:          "7",
				monitorPasswordHash: "8",
				pollPeriodMs:        9,
				debugGame:           true,
				noTLSRedirect:       true,
				requireToken:        true,
			},
			httpPort:  true,
			httpsPort: true,
			poll:      true,
		},
	}
	for i, test := range newMainFlagsTests {
		osLookupEnvFunc := func(key string) (string, bool) {
			v, ok := test.envVars[key]
			return v, ok
		}
		got := newMainFlags(test.osArgs, osLookupEnvFunc)
		if !test.httpPort {
			test.want.httpPort = defaultHTTPPort
		}
		if !test.httpsPort {
			test.want.httpsPort = defaultHTTPSPort
		}
		if !test.poll {
			test.want.pollPeriodMs = defaultPollPeriodMs
		}
		if test.want != got {
			t.Errorf("Test %v:\nwanted: %v\ngot:    %v", i, test.want, got)
		}
	}
}

func TestUsage(t *testing.T) {
	osLookupEnvFunc := func(key string) (string, bool) {
		return "", false
	}
	var m mainFlags
	var portOverride int
	fs := m.newFlagSet(osLookupEnvFunc, &portOverride)
	var b bytes.Buffer
	fs.SetOutput(&b)
	fs.Init("mockProgramName", flag.ContinueOnError) // override ErrorHandling
	err := fs.Parse([]string{"-h"})
	if err != flag.ErrHelp {
		t.Errorf("wanted ErrHelp, got %v", err)
	}
	got := b.String()
	envVars := []string{
		"HTTP_PORT",
		"HTTPS_PORT",
		"PORT",
		"DATABASE_URL",
		"DEBUG_GAME",
		"NO_TLS_REDIRECT",
		"REQUIRE_TOKEN",
		"MONITOR_PASSWORD_HASH",
		"POLL_PERIOD_MS",
		"ACME_CHALLENGE_TOKEN",
		"ACME_CHALLENGE_KEY",
		"TLS_CERT_FILE",
		"TLS_KEY_FILE",
	}
	for _, v := range envVars {
		if !strings.Contains(got, v) {
			t.Errorf("wanted usage to contain %v, got:\n%v", v, got)
		}
	}
	if !strings.Contains(got, "Usage of mockProgramName:") {
		t.Errorf("wanted usage to contain program name, got:\n%v", got)
	}
}
