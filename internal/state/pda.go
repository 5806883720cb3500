package state

import "github.com/gagliardetto/solana-go"

// PDASeed is the fixed seed string the state account is derived from
//.
var PDASeed = []byte("svmoracle:price_oracle_state:v1")

// DerivePDA computes the state account's program-derived address and
// bump for a given program id.
func DerivePDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{PDASeed}, programID)
}
