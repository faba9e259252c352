package whatsapp

// lessonSummaries maps a lecture title to its printed summary.
var lessonSummaries = map[string]string{
	"O que é Gnosis":                      "https://drive.google.com/file/d/0ByuJiBLnCPXgX3R0SW15bGJUS1E/view?usp=drive_link&resourcekey=0-G43iiHrkTm22Lox8mPh49g",
	"Personalidade, Essência e Ego":       "https://drive.google.com/file/d/12jpkWf6m2ST069drWA86rpSrSO8f5Yuc/view?usp=drive_link",
	"Despertar da Consciência":            "https://drive.google.com/file/d/0ByuJiBLnCPXgWWVlT3VNQm5kcVk/view?usp=drive_link&resourcekey=0-QjgW41nYsWeecFXhIAGCvA",
	"O Eu Psicológico":                    "https://drive.google.com/file/d/0ByuJiBLnCPXgUlMtcmtCZHdmNTg/view?usp=drive_link&resourcekey=0-8yYpe218jPZhG-buH6lFDA",
	"Luz, Calor e Som":                    "https://drive.google.com/file/d/0ByuJiBLnCPXgSm9OZlZMSlMzYTA/view?usp=drive_link&resourcekey=0-pXLDZW9_tRWPrlsBiWD-rQ",
	"A Máquina Humana":                    "https://drive.google.com/file/d/0ByuJiBLnCPXgeVdTblJKUFZkNW8/view?usp=drive_link&resourcekey=0-Sgq7TQ5NEqI1k4J0vDfrrA",
	"O Mundo das Relações":                "https://drive.google.com/file/d/12VR3p1VxgX-5szLdhSY5nDK9u-Uh03SO/view?usp=drive_link",
	"O Caminho e a Vida":                  "https://drive.google.com/file/d/0ByuJiBLnCPXgR0xpa0FqQmdhRHM/view?usp=drive_link&resourcekey=0-kypyl1Q6gy9eHA6th14oOQ",
	"O Nível de Ser":                      "https://drive.google.com/file/d/0ByuJiBLnCPXga3ZZRkxBUDJXdXc/view?usp=drive_link&resourcekey=0-gKG35-riXKyXjJhUcb-LUg",
	"O Decálogo":                          "https://drive.google.com/file/d/0ByuJiBLnCPXgc2FUTk1uTzNFMjg/view?usp=drive_link&resourcekey=0-trTrVjwS0DweKpRaTc4-0Q",
	"Educação Fundamental":                "https://drive.google.com/file/d/0ByuJiBLnCPXgdkhBcHk4M1JMclU/view?usp=drive_link&resourcekey=0-eQhKjBHstCLDUOuU65yj5w",
	"A Árvore Genealógica das Religiões":  "https://drive.google.com/file/d/0ByuJiBLnCPXgTDlRY0ZwRlp4QXM/view?usp=drive_link&resourcekey=0-iH_xNuiVemFplCA8qFw2KQ",
	"Evolução, Involução e Revolução":     "https://drive.google.com/file/d/0ByuJiBLnCPXgS1JJWFY0cDBHdEE/view?usp=drive_link&resourcekey=0-9aNc3kOptmpJPmGdqFsN8Q",
	"O Raio da Morte":                     "https://drive.google.com/file/d/0ByuJiBLnCPXgVVNTdDFlNF9Nc0U/view?usp=drive_link&resourcekey=0-zZ7O10pmxChe6X-l4wgYAA",
	"Reencarnação, Retorno e Recorrência": "https://drive.google.com/file/d/0ByuJiBLnCPXgZVliUjBVUjkxMlU/view?usp=drive_link&resourcekey=0-StxeibqRwyhrucOkORhwug",
	"A Balança da Justiça":                "https://drive.google.com/file/d/0ByuJiBLnCPXgTDd1S2s4aDNiaEU/view?usp=drive_link&resourcekey=0-IhRyZn4I1G2ElLG2An_dFw",
	"Os 4 Caminhos":                       "https://drive.google.com/file/d/0ByuJiBLnCPXgLUNhVkZFdEVxYUk/view?usp=drive_link&resourcekey=0-ZXlj0x4u0SkfLTE7p20Lfw",
	"Diagrama Interno do Homem":           "https://drive.google.com/file/d/0ByuJiBLnCPXgSGRoV1FNcnlibXc/view?usp=drive_link&resourcekey=0-pb_KEwQAT0oJgweIW2tcoQ",
	"A Transformação da Energia":          "https://drive.google.com/file/d/0ByuJiBLnCPXgZWo3eDhIY2VXRzQ/view?usp=drive_link&resourcekey=0-YvEuePHm8cZlJftnDtdLFw",
	"Os Elementais":                       "https://drive.google.com/file/d/0ByuJiBLnCPXgTWNlZFlLeUZPSzA/view?usp=drive_link&resourcekey=0-U-89ee79GB9tO_LvdHnOCQ",
	"Os 4 Estados de Consciência":         "https://drive.google.com/file/d/0ByuJiBLnCPXgOHpsckh5SXcyOTA/view?usp=drive_link&resourcekey=0-m19_tp-QD2gbpzHtiV7pEA",
	"A Iniciação":                         "https://drive.google.com/file/d/0ByuJiBLnCPXgc2RJSi1EeGJaelU/view?usp=drive_link&resourcekey=0-_Lpmpn-CeIiwvDKbFvkpJA",
	"A Santa Igreja Gnóstica":             "https://drive.google.com/file/d/0ByuJiBLnCPXgS000dGstQ1k2WkU/view?usp=drive_link&resourcekey=0-ph09MMPD82XjnbZQPIKNIg",
}

var motivations = map[string]string{
	"O que é Gnosis":                "Boa tarde!\nSua inscrição para o *Curso de Gnosis* com início amanhã (XX/XX), às XXhXX, está\nconfirmada. Endereço: XXXXX. Aguardamos você!\nAtenciosamente\n_Fulano(a)_\n_Instrutor(a)_\n_Gnosis Cidade Tal_",
	"Personalidade, Essência e Ego": "*LIÇÃO 2 – CÂMARA BÁSICA*\nEspero que estejam bem.\n\nAmanhã entramos em um tema lindo sobre psicologia, vamos falar sobre a personalidade humana, aquilo que nos define como pessoa frente aos demais e frente a nós mesmos.",
	"Despertar da Consciência":      "*LIÇÃO 3 – CÂMARA BÁSICA*\n*Gostaríamos de recodar da nossa aula amanhã às 18:30.*\n\n*O Despertar da Consciência.*\n\nVamos refletir sobre a essência, sobre a consciência, sobre os mistérios luz, sobre os aspectos que nos fazem dormir estando acordado.",
	"O Eu Psicológico":              "*LIÇÃO 4 – CÂMARA BÁSICA*\n*Espero que se encontrem nesse momento na mais perfeita paz e harmonia.*\n\nGostaríamos de recordar que *hoje às 19h vamos estudar o eu psicológico.*\n\nTodos os nossos *defeitos, problemas e situações da vida que nos causam dano* precisam ser estudados, analisados, compreendidos e por final eliminados de nossa natureza interior.",
	"Luz, Calor e Som":              "*LIÇÃO 5 – CÂMARA BÁSICA*\nBoa tarde pessoal.\n*Recordando da nossa aula hoje às 18:30, Luz Calor e Som.*\n\nVamos estudar os *princípios da criação,* desde a criação do universo até a criação do microcosmos homem.",
	"A Máquina Humana":              "*LIÇÃO 6 – CÂMARA BÁSICA*\nBoa noite queridos alunos.\n_Espero que essa mensagem vos encontre na mais perfeita paz e harmonia._\n*Amanhã às 18:30* vamos estudar *A Máquina Humana.*\n\nPor que Máquina? E por que Máquina Humana?",
	"O Mundo das Relações":          "*LIÇÃO 7 – CÂMARA BÁSICA*\n*Boa tarde meus queridos alunos.*\nRecordando da nossa aula hoje às 19h\n*O mundo das relações*\n\n_Como são as nossas relações com o mundo exterior?_\n_Como são as nossas relações com o mundo interior?_",
}

// lessonTitles is the fallback title table for the canonical lectures 01..23.
var lessonTitles = map[string]string{
	"01": "Lição 1: O que é Gnosis",
	"02": "Lição 2: Personalidade, Essência e Ego",
	"03": "Lição 3: Despertar da Consciência",
	"04": "Lição 4: O Eu Psicológico",
	"05": "Lição 5: Luz, Calor e Som",
	"06": "Lição 6: A Máquina Humana",
	"07": "Lição 7: O Mundo das Relações",
	"08": "Lição 8: O Caminho e a Vida",
	"09": "Lição 9: O Nível de Ser",
	"10": "Lição 10: O Decálogo",
	"11": "Lição 11: Educação Fundamental",
	"12": "Lição 12: A Árvore Genealógica das Religiões",
	"13": "Lição 13: Evolução, Involução e Revolução",
	"14": "Lição 14: O Raio da Morte",
	"15": "Lição 15: Reencarnação, Retorno e Recorrência",
	"16": "Lição 16: A Balança da Justiça",
	"17": "Lição 17: Os 4 Caminhos",
	"18": "Lição 18: Diagrama Interno do Homem",
	"19": "Lição 19: A Transformação da Energia",
	"20": "Lição 20: Os Elementais",
	"21": "Lição 21: Os 4 Estados de Consciência",
	"22": "Lição 22: A Iniciação",
	"23": "Lição 23: A Santa Igreja Gnóstica",
}

// LessonSummary returns the summary link for a lecture title.
func LessonSummary(title string) string {
	if link, ok := lessonSummaries[title]; ok {
		return link
	}
	return "Resumo não disponível."
}

// Motivation returns the reminder text for a lecture title.
func Motivation(title string) string {
	if text, ok := motivations[title]; ok {
		return text
	}
	return "Esperamos você na próxima aula! Continue firme no trabalho interior. 🙏"
}

// LessonTitle returns the fixed title of a canonical lecture id.
func LessonTitle(lectureID string) (string, bool) {
	title, ok := lessonTitles[lectureID]
	return title, ok
}
