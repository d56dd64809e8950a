// Copyright 2026 Red Hat
// SPDX-License-Identifier: Apache-2.0

package esxi

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"

	"esxinventory/internal/constants"
	"esxinventory/internal/inventory"
)

// Properties retrieved for every VM. Only these are populated in the
// returned mo.VirtualMachine values.
var vmProperties = []string{"name", "guest", "summary"}

// ConnectionError reports a transport or authentication failure against the
// management endpoint.
type ConnectionError struct {
	Host string
	// Op is "connect" for transport/TLS failures and "login" for rejected credentials.
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s to %s failed: %v", e.Op, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Settings are the connection parameters for one session.
type Settings struct {
	Host      string
	Port      int
	Username  string
	Password  string
	VerifyTLS bool
}

// URL returns the SDK endpoint without credentials.
func (s Settings) URL() *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:   constants.SDKPath,
	}
}

// Session is an authenticated vSphere API session.
type Session struct {
	client *govmomi.Client
	log    logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// Connect opens a session. Credentials are applied after the client is
// built so that transport and login failures can be told apart.
func Connect(ctx context.Context, s Settings, log logrus.FieldLogger) (*Session, error) {
	u := s.URL()
	log = log.WithField("endpoint", u.Host)

	log.WithField("verifyTLS", s.VerifyTLS).Debug("connecting to management endpoint")
	client, err := govmomi.NewClient(ctx, u, !s.VerifyTLS)
	if err != nil {
		return nil, &ConnectionError{Host: u.Host, Op: "connect", Err: err}
	}

	client.UserAgent = constants.UserAgent
	if err := client.Login(ctx, url.UserPassword(s.Username, s.Password)); err != nil {
		return nil, &ConnectionError{Host: u.Host, Op: "login", Err: err}
	}
	log.WithField("user", s.Username).Debug("logged in")

	return &Session{client: client, log: log}, nil
}

// ListVirtualMachines returns every VM under the root folder.
func (s *Session) ListVirtualMachines(ctx context.Context) ([]inventory.VMRecord, error) {
	m := view.NewManager(s.client.Client)

	v, err := m.CreateContainerView(ctx, s.client.ServiceContent.RootFolder, []string{"VirtualMachine"}, true)
	if err != nil {
		return nil, fmt.Errorf("creating container view: %w", err)
	}
	defer func() {
		if err := v.Destroy(ctx); err != nil {
			s.log.WithError(err).Warn("failed to destroy container view")
		}
	}()

	var vms []mo.VirtualMachine
	if err := v.Retrieve(ctx, []string{"VirtualMachine"}, vmProperties, &vms); err != nil {
		return nil, fmt.Errorf("retrieving virtual machines: %w", err)
	}
	s.log.WithField("count", len(vms)).Debug("retrieved virtual machines")

	records := make([]inventory.VMRecord, 0, len(vms))
	for i := range vms {
		records = append(records, ToRecord(&vms[i]))
	}
	return records, nil
}

// Close logs the session out. Subsequent calls return the first result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Logout(ctx)
		if s.closeErr != nil {
			s.log.WithError(s.closeErr).Warn("logout failed")
			return
		}
		s.log.Debug("logged out")
	})
	return s.closeErr
}
