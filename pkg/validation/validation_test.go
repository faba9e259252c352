package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("529.982.247-25"))
	assert.True(t, ValidCPF("52998224725"))
	assert.False(t, ValidCPF("52998224724"))
	assert.False(t, ValidCPF("111.111.111-11"))
	assert.False(t, ValidCPF("123"))
	assert.Equal(t, "52998224725", CleanCPF("529.982.247-25"))
}

type sample struct {
	CPF   string `validate:"cpf"`
	Phone string `validate:"intlphone"`
	Date  string `validate:"isodate"`
	Time  string `validate:"hhmm"`
	Name  string `validate:"personname"`
}

func TestRegisteredTags(t *testing.T) {
	v := New()
	ok := sample{CPF: "52998224725", Phone: "+5511987654321", Date: "2024-02-29", Time: "19:00", Name: "José da Silva"}
	assert.NoError(t, v.Struct(ok))

	bad := []sample{
		{CPF: "52998224725", Phone: "11987654321", Date: "2024-02-29", Time: "19:00", Name: "Ana"},
		{CPF: "52998224725", Phone: "+5511987654321", Date: "2023-02-29", Time: "19:00", Name: "Ana"},
		{CPF: "52998224725", Phone: "+5511987654321", Date: "2024-02-29", Time: "24:00", Name: "Ana"},
		{CPF: "52998224725", Phone: "+5511987654321", Date: "2024-02-29", Time: "19:00", Name: "A1"},
	}
	for _, s := range bad {
		assert.Error(t, v.Struct(s))
	}
}
