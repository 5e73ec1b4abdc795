package assistant

import "fmt"

func readErrorMessage(err error) string {
	return fmt.Sprintf("Sorry, I encountered an error while searching Jira: %s", err.Error())
}

func createdMessage(key, summary, link string) string {
	return fmt.Sprintf("✅ Created new issue: **%s**\n📝 Summary: %s\n🔗 Link: %s", key, firstNonEmpty(summary, defaultSummary), link)
}

func updatedMessage(result UpdateResult, link string) string {
	message := fmt.Sprintf("✅ Updated issue: **%s**\n🔗 Link: %s", result.Key, link)
	if result.StatusRequested != "" && !result.Transitioned {
		message += fmt.Sprintf("\n⚠️ Could not move it to \"%s\".", result.StatusRequested)
	}
	if result.UnresolvedAssignee != "" {
		message += fmt.Sprintf("\n⚠️ I couldn't find a user matching \"%s\", so the assignee is unchanged.", result.UnresolvedAssignee)
	}
	return message
}

func deletedMessage(key string) string {
	return fmt.Sprintf("✅ Deleted issue: **%s**", key)
}

func notFoundMessage(target string) string {
	return fmt.Sprintf("❌ I couldn't find an issue matching \"%s\". Please be more specific or provide the issue key.", target)
}

func userNotFoundMessage(name string) string {
	return fmt.Sprintf("❌ I couldn't find a user matching \"%s\". Please be more specific.", name)
}

func unknownOperationMessage(raw string) string {
	return fmt.Sprintf("❌ Unknown operation: %s", raw)
}

func writeErrorMessage(operation Operation, err error) string {
	verb := "processing"
	switch operation {
	case OperationCreate:
		verb = "creating"
	case OperationUpdate:
		verb = "updating"
	case OperationDelete:
		verb = "deleting"
	}
	return fmt.Sprintf("❌ Sorry, I encountered an error while %s the issue: %s", verb, err.Error())
}
