package internal

import (
	"os"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("BADGER_FILEPATH", "/tmp/chat-relay")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	req.NoError(err)
	req.Equal("localhost:8080", config.Address())
	req.Equal(168*time.Hour, config.AuthTokenDuration)
	req.Equal("drop_oldest", config.OverflowPolicy)
	req.Nil(config.LimitMessages)
	req.Equal([]string{"http://a.test", "http://b.test"}, config.Origins())
}

func TestConfig_RequiresSecret(t *testing.T) {
	t.Setenv("BADGER_FILEPATH", "/tmp/chat-relay")
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)

	require.Error(t, err)
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("#")
	req.NoError(err)
	req.Equal('#', r)

	_, err = CharacterRune("ab")
	req.Error(err)
}
