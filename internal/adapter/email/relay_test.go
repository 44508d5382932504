package email

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/config"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/port/mailer"
	"github.com/GokulRavii/SingleAgent-MultiTool-System/internal/service"
)

// relaySession is what the fake relay observed on one connection.
type relaySession struct {
	tls  bool
	auth string
	from string
	rcpt string
	data string
}

// fakeRelay is a single-connection SMTP server. By default it offers
// STARTTLS before the upgrade and AUTH PLAIN after it.
type fakeRelay struct {
	noTLS      bool
	rejectAuth bool

	tlsConfig *tls.Config
	ln        net.Listener
	done      chan relaySession
}

// startRelay listens on 127.0.0.1 and returns a sender pointed at it that
// trusts the relay's certificate.
func startRelay(t *testing.T, r *fakeRelay) *Sender {
	t.Helper()

	// Borrow httptest's self-signed certificate for 127.0.0.1.
	certSrv := httptest.NewUnstartedServer(http.NotFoundHandler())
	certSrv.StartTLS()
	t.Cleanup(certSrv.Close)
	r.tlsConfig = &tls.Config{Certificates: certSrv.TLS.Certificates, MinVersion: tls.VersionTLS12}
	pool := x509.NewCertPool()
	pool.AddCert(certSrv.Certificate())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	r.ln = ln
	r.done = make(chan relaySession, 1)
	go r.serve()

	s := NewSender(config.SMTP{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		User:     "me@example.com",
		Password: "pw",
	})
	s.timeout = 5 * time.Second
	s.rootCAs = pool
	return s
}

func (r *fakeRelay) serve() {
	conn, err := r.ln.Accept()
	if err != nil {
		r.done <- relaySession{}
		return
	}
	defer func() { _ = conn.Close() }()
	r.done <- r.session(conn)
}

func (r *fakeRelay) session(conn net.Conn) relaySession {
	var sess relaySession
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 relay.test ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return sess
		}
		verb, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO":
			switch {
			case r.noTLS:
				_ = tp.PrintfLine("250 relay.test")
			case !sess.tls:
				_ = tp.PrintfLine("250-relay.test")
				_ = tp.PrintfLine("250 STARTTLS")
			default:
				_ = tp.PrintfLine("250-relay.test")
				_ = tp.PrintfLine("250 AUTH PLAIN")
			}
		case "STARTTLS":
			_ = tp.PrintfLine("220 ready to start TLS")
			tc := tls.Server(conn, r.tlsConfig)
			if err := tc.Handshake(); err != nil {
				return sess
			}
			tp = textproto.NewConn(tc)
			sess.tls = true
		case "AUTH":
			if r.rejectAuth {
				_ = tp.PrintfLine("535 5.7.8 authentication failed")
				continue
			}
			sess.auth = arg
			_ = tp.PrintfLine("235 2.7.0 accepted")
		case "*":
			_ = tp.PrintfLine("501 cancelled")
		case "MAIL":
			sess.from = arg
			_ = tp.PrintfLine("250 ok")
		case "RCPT":
			sess.rcpt = arg
			_ = tp.PrintfLine("250 ok")
		case "DATA":
			_ = tp.PrintfLine("354 end with .")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return sess
			}
			sess.data = strings.Join(lines, "\n")
			_ = tp.PrintfLine("250 queued")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return sess
		default:
			_ = tp.PrintfLine("502 not implemented")
		}
	}
}

func (r *fakeRelay) wait(t *testing.T) relaySession {
	t.Helper()
	select {
	case s := <-r.done:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("relay session did not finish")
		return relaySession{}
	}
}

var testMessage = mailer.Message{To: "you@example.com", Subject: "Status", Body: "meeting postponed"}

func TestSendOverStartTLS(t *testing.T) {
	relay := &fakeRelay{}
	s := startRelay(t, relay)

	if err := s.Send(context.Background(), testMessage); err != nil {
		t.Fatalf("Send: %v", err)
	}
	sess := relay.wait(t)
	if !sess.tls {
		t.Error("message was not sent over TLS")
	}
	wantAuth := "PLAIN " + base64.StdEncoding.EncodeToString([]byte("\x00me@example.com\x00pw"))
	if sess.auth != wantAuth {
		t.Errorf("auth = %q, want %q", sess.auth, wantAuth)
	}
	if !strings.Contains(sess.from, "<me@example.com>") || !strings.Contains(sess.rcpt, "<you@example.com>") {
		t.Errorf("envelope = %q -> %q", sess.from, sess.rcpt)
	}
	if !strings.Contains(sess.data, "Subject: Status") || !strings.Contains(sess.data, "meeting postponed") {
		t.Errorf("data = %q", sess.data)
	}
}

func TestSendRefusesRelayWithoutStartTLS(t *testing.T) {
	relay := &fakeRelay{noTLS: true}
	s := startRelay(t, relay)

	err := s.Send(context.Background(), testMessage)
	if !errors.Is(err, ErrInsecureRelay) {
		t.Fatalf("err = %v, want ErrInsecureRelay", err)
	}
	sess := relay.wait(t)
	if sess.auth != "" || sess.from != "" || sess.data != "" {
		t.Errorf("relay saw traffic after the refusal: %+v", sess)
	}
}

func TestSendAuthRejected(t *testing.T) {
	relay := &fakeRelay{rejectAuth: true}
	s := startRelay(t, relay)

	err := s.Send(context.Background(), testMessage)
	if err == nil || !strings.Contains(err.Error(), "535") {
		t.Fatalf("err = %v, want auth rejection", err)
	}
	if sess := relay.wait(t); sess.from != "" || sess.data != "" {
		t.Errorf("message sent after auth rejection: %+v", sess)
	}
}

func TestSendEmailToolReportsAuthRejection(t *testing.T) {
	relay := &fakeRelay{rejectAuth: true}
	box := service.NewToolbox(nil, startRelay(t, relay), "", 0)

	res := box.SendEmail(context.Background(), testMessage.To, testMessage.Subject, testMessage.Body)
	if res.OK || !strings.HasPrefix(res.Error, "Failed to send email: auth: 535") {
		t.Fatalf("result = %+v", res)
	}
}
