package uncrypt

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testSettings() *Settings {
	settings := DefaultSettings()
	settings.Workers = 4
	settings.MaxBruteForceLength = 2
	settings.ProgressInterval = 0
	return settings
}

func recoverPasswords(
	t testing.TB,
	credentials []*Credential,
	wordlist []string,
	verifyFunc VerifyFunc,
	settings *Settings,
) *Result {
	result, err := RecoverPasswords(
		context.Background(),
		nil,
		credentials,
		BuildDictionary(credentials, wordlist),
		verifyFunc,
		settings,
	)
	require.NoError(t, err)
	return result
}

func TestRecoverPasswordsAppendedCharacter(t *testing.T) {
	credentials := mustParseCredentials(t,
		credentialLine("alice", "ab", "alice123", ""),
		credentialLine("alice1", "cd", "alice1", ""),
	)

	result := recoverPasswords(t, credentials, []string{"alice12"}, fakeVerify, testSettings())
	require.Equal(t, StatusFound, result.Status)
	require.Len(t, result.Cracks, 2)
	for _, crack := range result.Cracks {
		require.NotEqual(t, CampaignBruteForce, crack.Campaign)
	}

	settings := testSettings()
	settings.Campaigns = []string{CampaignExpansion}
	settings.SkipBruteForce = true
	result = recoverPasswords(t, credentials, []string{"alice12"}, fakeVerify, settings)
	require.Equal(t, StatusFound, result.Status)
	for _, crack := range result.Cracks {
		require.Equal(t, CampaignExpansion, crack.Campaign)
	}
}

func TestRecoverPasswordsCommonPassword(t *testing.T) {
	credentials := mustParseCredentials(t, credentialLine("bob", "xy", "password", "Bob"))

	settings := testSettings()
	settings.Campaigns = []string{CampaignRaw}
	settings.SkipBruteForce = true
	result := recoverPasswords(t, credentials, nil, fakeVerify, settings)
	require.Equal(t, StatusFound, result.Status)
	require.Equal(t, []Crack{{Plaintext: "password", Credential: credentials[0], Campaign: CampaignRaw}}, result.Cracks)

	result = recoverPasswords(t, credentials, nil, fakeVerify, testSettings())
	require.Equal(t, StatusFound, result.Status)
	require.Equal(t, "password", result.Cracks[0].Plaintext)
}

func TestRecoverPasswordsReversedWordWithDigit(t *testing.T) {
	credentials := mustParseCredentials(t, credentialLine("carol", "mk", "yeknom7", ""))
	wordlist := []string{"monkey"}

	settings := testSettings()
	settings.SkipBruteForce = true
	result := recoverPasswords(t, credentials, wordlist, fakeVerify, settings)
	require.Equal(t, StatusFound, result.Status)
	require.Equal(t, []Crack{{Plaintext: "yeknom7", Credential: credentials[0], Campaign: CampaignReversedExpansion}}, result.Cracks)

	settings.Campaigns = []string{CampaignRaw, CampaignMangle1, CampaignMangle2, CampaignMangle3, CampaignExpansion}
	result = recoverPasswords(t, credentials, wordlist, fakeVerify, settings)
	require.Equal(t, StatusExhausted, result.Status)
	require.Empty(t, result.Cracks)
	require.Equal(t, credentials, result.Remaining)
}

func TestRecoverPasswordsSharedPlaintext(t *testing.T) {
	credentials := mustParseCredentials(t,
		credentialLine("dave", "ab", "starwars", ""),
		credentialLine("erin", "zz", "starwars", ""),
	)

	settings := testSettings()
	settings.Campaigns = []string{CampaignRaw}
	settings.SkipBruteForce = true

	verifier := &countingVerifier{}
	result := recoverPasswords(t, credentials, nil, verifier.Verify, settings)
	require.Equal(t, StatusFound, result.Status)
	require.Len(t, result.Cracks, 2)
	require.Equal(t, "starwars", result.Cracks[0].Plaintext)
	require.Equal(t, "starwars", result.Cracks[1].Plaintext)

	// "dave", "erin", then the common passwords up to "starwars";
	// every guess is checked against both credentials
	dictionary := BuildDictionary(credentials, nil)
	guesses := uint64(0)
	for _, word := range dictionary {
		guesses++
		if word == "starwars" {
			break
		}
	}
	require.Equal(t, guesses, result.GuessCount)
	require.Equal(t, 2*guesses, verifier.calls.Load())
}

func TestRecoverPasswordsNoCredentials(t *testing.T) {
	verifier := &countingVerifier{}
	crackFuncCalled := false
	result, err := RecoverPasswords(
		context.Background(),
		func(ctx context.Context, crack Crack) { crackFuncCalled = true },
		nil,
		BuildDictionary(nil, []string{"a", "b"}),
		verifier.Verify,
		testSettings(),
	)
	require.NoError(t, err)
	require.Equal(t, StatusFound, result.Status)
	require.Empty(t, result.Cracks)
	require.Empty(t, result.Remaining)
	require.Zero(t, result.GuessCount)
	require.Zero(t, verifier.calls.Load())
	require.False(t, crackFuncCalled)
}

func TestRecoverPasswordsNoVerificationAfterLastCrack(t *testing.T) {
	credentials := mustParseCredentials(t,
		credentialLine("frank", "ab", "password", ""),
		credentialLine("grace", "cd", "qwerty", ""),
	)
	var wordlist []string
	for i := 0; i < 2000; i++ {
		wordlist = append(wordlist, fmt.Sprintf("word%d", i))
	}

	verifier := &countingVerifier{}
	var (
		locker                 sync.Mutex
		crackCount             int
		callsAtLastRemoval     uint64
		campaignsAtLastRemoval []string
	)
	settings := testSettings()
	settings.MaxBruteForceLength = 8
	result, err := RecoverPasswords(
		context.Background(),
		func(ctx context.Context, crack Crack) {
			locker.Lock()
			defer locker.Unlock()
			crackCount++
			campaignsAtLastRemoval = append(campaignsAtLastRemoval, crack.Campaign)
			if crackCount == len(credentials) {
				callsAtLastRemoval = verifier.calls.Load()
			}
		},
		credentials,
		BuildDictionary(credentials, wordlist),
		verifier.Verify,
		settings,
	)
	require.NoError(t, err)
	require.Equal(t, StatusFound, result.Status)
	require.Len(t, result.Cracks, 2)
	require.Len(t, campaignsAtLastRemoval, 2)
	require.NotZero(t, callsAtLastRemoval)
	require.Equal(t, callsAtLastRemoval, verifier.calls.Load())
}

func TestRecoverPasswordsDeterministic(t *testing.T) {
	credentials := mustParseCredentials(t,
		credentialLine("henry", "ab", "Henry", "Henry Ford"),
		credentialLine("irene", "cd", "eneri", "Irene Adler"),
		credentialLine("jack", "ef", "KCAJ", ""),
		credentialLine("kate", "gh", "2winter", ""),
		credentialLine("liam", "ij", "notinthedictionary", ""),
	)
	wordlist := []string{"winter", "summer"}

	crackedSet := func() map[string]string {
		settings := testSettings()
		settings.SkipBruteForce = true
		result := recoverPasswords(t, credentials, wordlist, fakeVerify, settings)
		require.Equal(t, StatusExhausted, result.Status)
		require.Len(t, result.Remaining, 1)
		require.Equal(t, "liam", result.Remaining[0].Account)

		cracked := map[string]string{}
		for _, crack := range result.Cracks {
			cracked[crack.Credential.Account] = crack.Plaintext
		}
		return cracked
	}

	expected := map[string]string{
		"henry": "Henry",
		"irene": "eneri",
		"jack":  "KCAJ",
		"kate":  "2winter",
	}
	require.Equal(t, expected, crackedSet())
	require.Equal(t, expected, crackedSet())
}

func TestRecoverPasswordsBruteForce(t *testing.T) {
	t.Run("parallel", func(t *testing.T) {
		credentials := mustParseCredentials(t, credentialLine("mia", "ab", "zZ", ""))
		settings := testSettings()
		settings.Campaigns = []string{CampaignRaw}
		settings.MaxBruteForceLength = 4
		result := recoverPasswords(t, credentials, nil, fakeVerify, settings)
		require.Equal(t, StatusFound, result.Status)
		require.Equal(t, []Crack{{Plaintext: "zZ", Credential: credentials[0], Campaign: CampaignBruteForce}}, result.Cracks)
	})

	t.Run("sequential", func(t *testing.T) {
		credentials := mustParseCredentials(t,
			credentialLine("noah", "ab", "7", ""),
			credentialLine("olga", "cd", "a1", ""),
		)
		settings := testSettings()
		settings.Campaigns = []string{CampaignRaw}
		settings.Workers = 1
		result := recoverPasswords(t, credentials, nil, fakeVerify, settings)
		require.Equal(t, StatusFound, result.Status)
		require.Len(t, result.Cracks, 2)
		require.Equal(t, "7", result.Cracks[0].Plaintext)
		require.Equal(t, "a1", result.Cracks[1].Plaintext)
	})

	t.Run("waves-limit", func(t *testing.T) {
		credentials := mustParseCredentials(t, credentialLine("paul", "ab", "abc", ""))
		settings := testSettings()
		settings.Campaigns = []string{CampaignRaw}
		settings.Workers = 2
		settings.MaxBruteForceLength = 4
		settings.MaxBruteForceWaves = 1
		result := recoverPasswords(t, credentials, nil, fakeVerify, settings)
		require.Equal(t, StatusExhausted, result.Status)
		require.Equal(t, credentials, result.Remaining)

		dictionarySize := uint64(len(Deduplicate(BuildDictionary(credentials, nil))))
		require.Equal(t, dictionarySize+BruteForceSpaceSize(1)+BruteForceSpaceSize(2), result.GuessCount)
	})
}

func TestRecoverPasswordsCancelled(t *testing.T) {
	credentials := mustParseCredentials(t, credentialLine("quinn", "ab", "unreachable", ""))

	ctx, cancelFn := context.WithCancel(context.Background())
	cancelFn()

	settings := testSettings()
	settings.Workers = 2
	settings.MaxBruteForceLength = 8
	settings.ProgressInterval = time.Millisecond
	result, err := RecoverPasswords(ctx, nil, credentials, BuildDictionary(credentials, nil), fakeVerify, settings)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, result.Status)
	require.Equal(t, credentials, result.Remaining)
}

func TestRecoverPasswordsInvalidInput(t *testing.T) {
	settings := testSettings()
	settings.Workers = -1
	settings.MaxBruteForceLength = 9
	settings.Campaigns = []string{"unknown"}
	_, err := RecoverPasswords(context.Background(), nil, nil, nil, fakeVerify, settings)
	require.Error(t, err)
	require.Contains(t, err.Error(), "3 errors occurred")

	_, err = RecoverPasswords(context.Background(), nil, nil, nil, nil, testSettings())
	require.Error(t, err)
}

func BenchmarkRecoverPasswords(b *testing.B) {
	for _, wordlistSize := range []int{10, 100} {
		b.Run(fmt.Sprintf("wordlist-%d", wordlistSize), func(b *testing.B) {
			for _, campaign := range CampaignNames() {
				b.Run(campaign, func(b *testing.B) {
					benchmarkRecoverPasswords(b, wordlistSize, campaign)
				})
			}
		})
	}
}

func benchmarkRecoverPasswords(
	b *testing.B,
	wordlistSize int,
	campaign string,
) {
	credentials := mustParseCredentials(b, credentialLine("rose", "ab", "not-a-guess", ""))
	var wordlist []string
	for i := 0; i < wordlistSize; i++ {
		wordlist = append(wordlist, fmt.Sprintf("w%d", i))
	}
	settings := testSettings()
	settings.Campaigns = []string{campaign}
	settings.SkipBruteForce = true

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		result := recoverPasswords(b, credentials, wordlist, fakeVerify, settings)
		require.Equal(b, StatusExhausted, result.Status)
	}
}
