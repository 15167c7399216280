package cryptotest

// NoopService passes tokens through without encryption. Test use only.
type NoopService struct{}

func (NoopService) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (NoopService) Decrypt(serialized string) (string, error) { return serialized, nil }

// FailingService fails every call with Err. Test use only.
type FailingService struct {
	Err error
}

func (f FailingService) Encrypt(string) (string, error) { return "", f.Err }
func (f FailingService) Decrypt(string) (string, error) { return "", f.Err }
