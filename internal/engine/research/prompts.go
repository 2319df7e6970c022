package research

const dossierPrompt = `You are a company research analyst preparing a candidate for a job interview. Based on the sources below, summarize how this company hires.

Company: %s

Sources:
%s

Return a JSON object with this exact structure:
{
  "hiring_strategy": "<2-3 sentences on who they hire and how teams are organized>",
  "interview_focus": [<topics the interview loop emphasizes, e.g. "system design">],
  "salary_estimates": [
    {"title": "<role>", "location": "<location or empty>", "currency": "<ISO code>", "min": <annual integer>, "max": <annual integer>, "confidence": "<low|medium|high>", "source": "<site the figure came from>"}
  ],
  "competitors": [<main competitors>],
  "recent_news": [<up to 3 recent notable events>]
}

Only use facts supported by the sources. Use empty arrays when nothing is known.
Return ONLY the JSON object, no markdown, no explanation.`
