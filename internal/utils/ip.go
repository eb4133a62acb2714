package utils

import "net/netip"

// HostPrefix returns the single-address prefix for ip: /32 for IPv4, /128 for IPv6.
func HostPrefix(ip netip.Addr) netip.Prefix {
	return netip.PrefixFrom(ip, ip.BitLen())
}

// Unspecified returns 0.0.0.0 or :: depending on v6.
func Unspecified(v6 bool) netip.Addr {
	if v6 {
		return netip.IPv6Unspecified()
	}
	return netip.IPv4Unspecified()
}

// AnyPrefix returns 0.0.0.0/0 or ::/0.
func AnyPrefix(v6 bool) netip.Prefix {
	return netip.PrefixFrom(Unspecified(v6), 0)
}

// PrefixSize returns the number of addresses in p, saturating at 1<<63.
func PrefixSize(p netip.Prefix) uint64 {
	host := p.Addr().BitLen() - p.Bits()
	if host >= 64 {
		return 1 << 63
	}
	return 1 << host
}
