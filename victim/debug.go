package victim

// DebugSecret returns a copy of the true secret.
//
// This exists for the harness and for tests only. The attacker controller
// sees the buffer through a narrow interface that does not include this
// method; never wire it into an attack path.
func (b *Buffer) DebugSecret() []byte {
	secret := make([]byte, len(b.secret))
	copy(secret, b.secret)

	return secret
}
