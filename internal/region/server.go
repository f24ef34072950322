package region

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Server identifies one incarnation of a storage server. Two values with the
// same host and port but different start codes are different incarnations.
type Server struct {
	Host      string
	Port      int
	StartCode int64
}

// HostPort returns the dialable "host:port" address of the server.
func (s Server) HostPort() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Name returns "host,port,startcode".
func (s Server) Name() string {
	return s.Host + "," + strconv.Itoa(s.Port) + "," + strconv.FormatInt(s.StartCode, 10)
}

// IsZero reports whether the server identity is unset.
func (s Server) IsZero() bool {
	return s.Host == "" && s.Port == 0
}

// SameAddress reports whether both servers listen on the same host:port.
func (s Server) SameAddress(other Server) bool {
	return s.Host == other.Host && s.Port == other.Port
}

// SameIncarnation reports whether both values name the same server process.
func (s Server) SameIncarnation(other Server) bool {
	return s.SameAddress(other) && s.StartCode == other.StartCode
}

func (s Server) String() string {
	return s.Name()
}

// ParseServerName is the inverse of Server.Name.
func ParseServerName(name string) (Server, error) {
	parts := strings.Split(name, ",")
	if len(parts) != 3 {
		return Server{}, fmt.Errorf("invalid server name %q", name)
	}
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return Server{}, fmt.Errorf("invalid port in server name %q: %w", name, err)
	}
	startCode, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Server{}, fmt.Errorf("invalid start code in server name %q: %w", name, err)
	}
	return Server{Host: parts[0], Port: port, StartCode: startCode}, nil
}

// CatalogLocation names the server currently hosting a catalog partition.
type CatalogLocation struct {
	Address string
	Region  Info
}

// StartKey returns the first catalog row key served by the partition.
func (l CatalogLocation) StartKey() []byte {
	return l.Region.Range.Start
}

func (l CatalogLocation) String() string {
	return fmt.Sprintf("{server: %s, region: %s}", l.Address, l.Region.Name())
}
