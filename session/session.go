package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	log "github.com/sirupsen/logrus"

	"github.com/casmap/casmap/config"
)

// Session wraps gocql and applies the configured defaults to every
// query it creates.
type Session struct {
	*gocql.Session
	cluster     *gocql.ClusterConfig
	consistency gocql.Consistency
	pageSize    int
	keyspace    string
}

// New connects to the cluster described by cfg. Connection is attempted
// with progressively lower protocol versions:
//
//	v5: Cassandra 3.10+, 4.0+, 5.0+
//	v4: Cassandra 3.0+
//	v3: Cassandra 2.1+
func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Port != 0 {
		cluster.Port = cfg.Port
	}
	cluster.Consistency = ParseConsistency(cfg.Consistency)

	if cfg.RequestTimeout > 0 {
		cluster.Timeout = time.Duration(cfg.RequestTimeout) * time.Second
	} else {
		cluster.Timeout = 10 * time.Second
	}
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = time.Duration(cfg.ConnectTimeout) * time.Second
	} else {
		cluster.ConnectTimeout = 10 * time.Second
	}

	if cfg.Keyspace != "" {
		cluster.Keyspace = cfg.Keyspace
	}
	if cfg.Username != "" && cfg.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	if cfg.SSL != nil && cfg.SSL.Enabled {
		serverName := cfg.SSL.ServerName
		if serverName == "" && len(cfg.Hosts) > 0 {
			serverName = cfg.Hosts[0]
		}
		tlsConfig, err := createTLSConfig(cfg.SSL, serverName)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig}
	}

	var (
		sess *gocql.Session
		err  error
	)
	for _, protoVer := range []int{5, 4, 3} {
		cluster.ProtoVersion = protoVer
		sess, err = cluster.CreateSession()
		if err == nil {
			log.WithField("protocol", protoVer).Debug("connected")
			break
		}
		log.WithField("protocol", protoVer).WithError(err).Debug("connect failed")
	}
	if sess == nil {
		return nil, fmt.Errorf("failed to connect with any supported protocol version: %w", err)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Session{
		Session:     sess,
		cluster:     cluster,
		consistency: cluster.Consistency,
		pageSize:    pageSize,
		keyspace:    cfg.Keyspace,
	}, nil
}

// Query creates a query with the session's consistency and page size
// defaults applied.
func (s *Session) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...).
		Consistency(s.consistency).
		PageSize(s.pageSize)
}

// Exec runs a single statement, discarding any rows. Schema tooling
// executes DDL through here.
func (s *Session) Exec(ctx context.Context, stmt string) error {
	return s.Query(stmt).WithContext(ctx).Exec()
}

// Keyspace returns the keyspace the session is bound to.
func (s *Session) Keyspace() string { return s.keyspace }

// PageSize returns the session's default page size.
func (s *Session) PageSize() int { return s.pageSize }

// Consistency returns the session's default consistency level.
func (s *Session) Consistency() gocql.Consistency { return s.consistency }

// SetConsistency changes the default consistency for queries created
// after the call.
func (s *Session) SetConsistency(c gocql.Consistency) { s.consistency = c }

// ParseConsistency maps a consistency name to the driver constant.
// Unknown names fall back to LOCAL_ONE.
func ParseConsistency(name string) gocql.Consistency {
	switch strings.ToUpper(name) {
	case "ANY":
		return gocql.Any
	case "ONE":
		return gocql.One
	case "TWO":
		return gocql.Two
	case "THREE":
		return gocql.Three
	case "QUORUM":
		return gocql.Quorum
	case "ALL":
		return gocql.All
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "EACH_QUORUM":
		return gocql.EachQuorum
	case "LOCAL_ONE", "":
		return gocql.LocalOne
	default:
		log.WithField("consistency", name).Debug("unknown consistency, using LOCAL_ONE")
		return gocql.LocalOne
	}
}
